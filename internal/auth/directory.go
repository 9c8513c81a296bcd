package auth

import (
	"strings"
	"sync"
)

// Profile is a directory record: the rich identity plus the credential hash
// that unlocks it.
type Profile struct {
	Identity
	PasswordHash string
}

// Directory resolves rich profiles by email. It replaces the source
// system's separately seeded "current user": whoever logs in is looked up
// here, and unknown operators get a derived identity instead.
type Directory struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{profiles: make(map[string]Profile)}
}

// Register adds or replaces a profile keyed by its lower-cased email.
func (d *Directory) Register(p Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[strings.ToLower(strings.TrimSpace(p.Email))] = p
}

// Lookup finds a profile by email.
func (d *Directory) Lookup(email string) (Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[strings.ToLower(strings.TrimSpace(email))]
	return p, ok
}

// Demo administrator credential accepted by the demo verifier with a rich
// profile attached.
const (
	DemoAdminEmail    = "admin@pharmadesk.org"
	DemoAdminPassword = "pharma123"
)

// NewDemoDirectory seeds the directory used in demo mode.
func NewDemoDirectory() *Directory {
	d := NewDirectory()
	hash, err := HashPassword(DemoAdminPassword)
	if err != nil {
		panic(err)
	}
	d.Register(Profile{
		Identity: Identity{
			ID:    "01JDEMOUSR0000000000ADMIN0",
			Name:  "Marie Lambert",
			Email: DemoAdminEmail,
			Role:  "Administrateur",
			Permissions: []string{
				"users.manage", "officines.manage", "products.manage",
				"orders.manage", "audit.read",
			},
		},
		PasswordHash: hash,
	})
	return d
}
