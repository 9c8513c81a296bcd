package store

import "time"

// Fixed demo datasets served by the simulated backend. Contents are stable
// so repeated fetches replace a collection with identical data.

func date(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func demoUsers() []User {
	return []User{
		{
			ID:     "01JDEMOUSR0000000000ADMIN0",
			Name:   "Marie Lambert",
			Email:  "marie.lambert@pharmadesk.org",
			Role:   "Administrateur",
			Phone:  "+33 1 44 55 66 77",
			Status: "active",
			Permissions: []string{
				"users.manage", "officines.manage", "products.manage",
				"orders.manage", "audit.read",
			},
			Preferences: Preferences{
				Theme: "light", Language: "fr",
				EmailAlerts: true, PushAlerts: true,
				DefaultModule: "dashboard",
			},
			CreatedAt: date("2024-01-08T09:00:00Z"),
			UpdatedAt: date("2025-06-02T14:30:00Z"),
		},
		{
			ID:     "01JDEMOUSR0000000000PHARM0",
			Name:   "Julien Caron",
			Email:  "julien.caron@pharmadesk.org",
			Role:   "Pharmacien responsable",
			Phone:  "+33 1 44 55 66 78",
			Status: "active",
			Permissions: []string{
				"products.manage", "orders.manage",
			},
			Preferences: Preferences{
				Theme: "dark", Language: "fr",
				EmailAlerts: true, CompactLayout: true,
				DefaultModule: "products",
			},
			CreatedAt: date("2024-03-14T10:15:00Z"),
			UpdatedAt: date("2025-04-22T08:05:00Z"),
		},
		{
			ID:     "01JDEMOUSR0000000000OPER00",
			Name:   "Aïcha Benali",
			Email:  "aicha.benali@pharmadesk.org",
			Role:   "Opérateur",
			Status: "inactive",
			Permissions: []string{
				"orders.read",
			},
			Preferences: Preferences{
				Theme: "light", Language: "fr",
				DefaultModule: "orders",
			},
			CreatedAt: date("2024-07-01T08:00:00Z"),
			UpdatedAt: date("2025-01-19T16:45:00Z"),
		},
	}
}

func demoOfficines() []Officine {
	return []Officine{
		{
			ID:           "01JDEMOOFF0000000000CENTR0",
			Name:         "Pharmacie du Centre",
			Address:      "12 rue de la République",
			City:         "Lyon",
			PostalCode:   "69002",
			Registration: "69-2041-887",
			Status:       "active",
			ContactName:  "Dr. Hélène Moreau",
			ContactPhone: "+33 4 72 11 22 33",
			LastOrderAt:  date("2025-08-18T11:20:00Z"),
			TotalOrders:  148,
			TotalAmount:  8_742_350,
			CreatedAt:    date("2023-02-10T09:00:00Z"),
			UpdatedAt:    date("2025-08-18T11:20:00Z"),
		},
		{
			ID:           "01JDEMOOFF0000000000LAFAY0",
			Name:         "Pharmacie Lafayette Presqu'île",
			Address:      "45 cours Lafayette",
			City:         "Lyon",
			PostalCode:   "69003",
			Registration: "69-3310-104",
			Status:       "active",
			ContactName:  "Thomas Girard",
			ContactPhone: "+33 4 72 44 55 66",
			LastOrderAt:  date("2025-08-21T09:05:00Z"),
			TotalOrders:  96,
			TotalAmount:  5_118_900,
			CreatedAt:    date("2023-06-01T14:00:00Z"),
			UpdatedAt:    date("2025-08-21T09:05:00Z"),
		},
		{
			ID:           "01JDEMOOFF0000000000GARE00",
			Name:         "Pharmacie de la Gare",
			Address:      "3 place Charles Béraudier",
			City:         "Lyon",
			PostalCode:   "69003",
			Registration: "69-1208-552",
			Status:       "active",
			ContactName:  "Nadia Kessler",
			LastOrderAt:  date("2025-07-30T15:40:00Z"),
			TotalOrders:  61,
			TotalAmount:  2_904_410,
			CreatedAt:    date("2024-01-22T10:30:00Z"),
			UpdatedAt:    date("2025-07-30T15:40:00Z"),
		},
		{
			ID:           "01JDEMOOFF0000000000VERTS0",
			Name:         "Pharmacie des Monts Verts",
			Address:      "8 avenue du Plateau",
			City:         "Saint-Étienne",
			PostalCode:   "42000",
			Registration: "42-0771-236",
			Status:       "suspended",
			ContactName:  "Paul Reynaud",
			TotalOrders:  12,
			TotalAmount:  388_200,
			CreatedAt:    date("2024-11-05T08:45:00Z"),
			UpdatedAt:    date("2025-05-12T12:00:00Z"),
		},
	}
}

func demoProducts() []Product {
	return []Product{
		{
			ID:           "01JDEMOPRD0000000000DOLIP0",
			CIP:          "3400935955838",
			Name:         "Doliprane 1000 mg",
			Description:  "Paracétamol, boîte de 8 comprimés",
			Category:     "Antalgiques",
			Manufacturer: "Sanofi",
			Price:        217,
			Stock:        1240,
			MinStock:     200,
			MaxStock:     3000,
			Unit:         "boîte",
			Status:       "available",
			ExpiresAt:    date("2027-03-31T00:00:00Z"),
			Batch:        "SAN-24C118",
			CreatedAt:    date("2023-02-10T09:00:00Z"),
			UpdatedAt:    date("2025-08-01T07:30:00Z"),
		},
		{
			ID:           "01JDEMOPRD0000000000AMOXI0",
			CIP:          "3400936101456",
			Name:         "Amoxicilline 500 mg",
			Description:  "Antibiotique, boîte de 12 gélules",
			Category:     "Antibiotiques",
			Manufacturer: "Biogaran",
			Price:        342,
			Stock:        86,
			MinStock:     120,
			MaxStock:     800,
			Unit:         "boîte",
			Status:       "low_stock",
			ExpiresAt:    date("2026-09-30T00:00:00Z"),
			Batch:        "BGN-25A034",
			CreatedAt:    date("2023-02-10T09:00:00Z"),
			UpdatedAt:    date("2025-08-19T16:10:00Z"),
		},
		{
			ID:           "01JDEMOPRD0000000000SPASF0",
			CIP:          "3400930082676",
			Name:         "Spasfon Lyoc 80 mg",
			Description:  "Phloroglucinol, boîte de 10 lyophilisats",
			Category:     "Antispasmodiques",
			Manufacturer: "Teva Santé",
			Price:        289,
			Stock:        412,
			MinStock:     100,
			MaxStock:     1200,
			Unit:         "boîte",
			Status:       "available",
			ExpiresAt:    date("2026-12-31T00:00:00Z"),
			Batch:        "TEV-24K901",
			CreatedAt:    date("2023-05-02T11:00:00Z"),
			UpdatedAt:    date("2025-07-11T09:45:00Z"),
		},
		{
			ID:           "01JDEMOPRD0000000000LEVOT0",
			CIP:          "3400937438483",
			Name:         "Levothyrox 100 µg",
			Description:  "Lévothyroxine sodique, boîte de 30 comprimés",
			Category:     "Hormones thyroïdiennes",
			Manufacturer: "Merck",
			Price:        296,
			Stock:        930,
			MinStock:     150,
			MaxStock:     2000,
			Unit:         "boîte",
			Status:       "available",
			ExpiresAt:    date("2027-01-31T00:00:00Z"),
			Batch:        "MRK-25B667",
			CreatedAt:    date("2023-05-02T11:00:00Z"),
			UpdatedAt:    date("2025-06-28T13:20:00Z"),
		},
		{
			ID:           "01JDEMOPRD0000000000MORPH0",
			CIP:          "3400939089133",
			Name:         "Skenan LP 30 mg",
			Description:  "Sulfate de morphine LP, boîte de 14 gélules",
			Category:     "Stupéfiants",
			Manufacturer: "Ethypharm",
			Price:        486,
			Stock:        48,
			MinStock:     20,
			MaxStock:     120,
			Unit:         "boîte",
			Status:       "available",
			Controlled:   true,
			ExpiresAt:    date("2026-05-31T00:00:00Z"),
			Batch:        "ETH-25D012",
			CreatedAt:    date("2024-02-19T10:00:00Z"),
			UpdatedAt:    date("2025-08-05T10:05:00Z"),
		},
		{
			ID:           "01JDEMOPRD0000000000VENTO0",
			CIP:          "3400930065242",
			Name:         "Ventoline 100 µg",
			Description:  "Salbutamol, flacon pressurisé 200 doses",
			Category:     "Bronchodilatateurs",
			Manufacturer: "GSK",
			Price:        331,
			Stock:        0,
			MinStock:     80,
			MaxStock:     600,
			Unit:         "flacon",
			Status:       "out_of_stock",
			ExpiresAt:    date("2026-08-31T00:00:00Z"),
			Batch:        "GSK-24M220",
			CreatedAt:    date("2023-02-10T09:00:00Z"),
			UpdatedAt:    date("2025-08-22T08:55:00Z"),
		},
	}
}

func demoOrders() []Order {
	return []Order{
		{
			ID:         "01JDEMOORD0000000000000010",
			Number:     "CMD-2025-0412",
			OfficineID: "01JDEMOOFF0000000000CENTR0",
			Status:     OrderPending,
			Priority:   "high",
			Items: []OrderItem{
				{
					ProductID: "01JDEMOPRD0000000000DOLIP0", ProductName: "Doliprane 1000 mg",
					CIP: "3400935955838", Quantity: 120, UnitPrice: 217, LineTotal: 26_040,
					Availability: "in_stock",
				},
				{
					ProductID: "01JDEMOPRD0000000000AMOXI0", ProductName: "Amoxicilline 500 mg",
					CIP: "3400936101456", Quantity: 40, UnitPrice: 342, LineTotal: 13_680,
					Availability: "partial",
				},
			},
			Total:     39_720,
			Notes:     "Livraison avant vendredi si possible.",
			CreatedBy: "Marie Lambert",
			CreatedAt: date("2025-08-21T09:05:00Z"),
			UpdatedAt: date("2025-08-21T09:05:00Z"),
		},
		{
			ID:         "01JDEMOORD0000000000000020",
			Number:     "CMD-2025-0409",
			OfficineID: "01JDEMOOFF0000000000LAFAY0",
			Status:     OrderProcessing,
			Priority:   "normal",
			Items: []OrderItem{
				{
					ProductID: "01JDEMOPRD0000000000LEVOT0", ProductName: "Levothyrox 100 µg",
					CIP: "3400937438483", Quantity: 60, UnitPrice: 296, LineTotal: 17_760,
					Availability: "in_stock",
				},
			},
			Total:     17_760,
			CreatedBy: "Julien Caron",
			CreatedAt: date("2025-08-19T14:30:00Z"),
			UpdatedAt: date("2025-08-20T08:10:00Z"),
		},
		{
			ID:         "01JDEMOORD0000000000000030",
			Number:     "CMD-2025-0396",
			OfficineID: "01JDEMOOFF0000000000GARE00",
			Status:     OrderShipped,
			Priority:   "normal",
			Items: []OrderItem{
				{
					ProductID: "01JDEMOPRD0000000000SPASF0", ProductName: "Spasfon Lyoc 80 mg",
					CIP: "3400930082676", Quantity: 30, UnitPrice: 289, LineTotal: 8_670,
					Availability: "in_stock",
				},
				{
					ProductID: "01JDEMOPRD0000000000MORPH0", ProductName: "Skenan LP 30 mg",
					CIP: "3400939089133", Quantity: 4, UnitPrice: 486, LineTotal: 1_944,
					Availability: "in_stock",
				},
			},
			Total:     10_614,
			Notes:     "Stupéfiant: remise contre signature.",
			CreatedBy: "Marie Lambert",
			CreatedAt: date("2025-08-12T10:00:00Z"),
			UpdatedAt: date("2025-08-14T17:25:00Z"),
		},
		{
			ID:         "01JDEMOORD0000000000000040",
			Number:     "CMD-2025-0371",
			OfficineID: "01JDEMOOFF0000000000CENTR0",
			Status:     OrderDelivered,
			Priority:   "low",
			Items: []OrderItem{
				{
					ProductID: "01JDEMOPRD0000000000VENTO0", ProductName: "Ventoline 100 µg",
					CIP: "3400930065242", Quantity: 50, UnitPrice: 331, LineTotal: 16_550,
					Availability: "backorder",
				},
			},
			Total:     16_550,
			CreatedBy: "Aïcha Benali",
			CreatedAt: date("2025-07-28T08:50:00Z"),
			UpdatedAt: date("2025-08-02T12:40:00Z"),
		},
	}
}

func demoNotifications() []Notification {
	return []Notification{
		{
			ID:        "01JDEMONTF0000000000000010",
			Type:      "warning",
			Title:     "Stock faible",
			Message:   "Amoxicilline 500 mg sous le seuil minimal (86/120).",
			Broadcast: true,
			Priority:  "high",
			CreatedAt: date("2025-08-19T16:12:00Z"),
		},
		{
			ID:        "01JDEMONTF0000000000000020",
			Type:      "error",
			Title:     "Rupture de stock",
			Message:   "Ventoline 100 µg en rupture, 3 commandes en attente.",
			Broadcast: true,
			Priority:  "high",
			CreatedAt: date("2025-08-22T08:56:00Z"),
		},
		{
			ID:        "01JDEMONTF0000000000000030",
			Type:      "success",
			Title:     "Commande livrée",
			Message:   "CMD-2025-0371 livrée à Pharmacie du Centre.",
			UserID:    "01JDEMOUSR0000000000ADMIN0",
			CreatedAt: date("2025-08-02T12:41:00Z"),
		},
		{
			ID:        "01JDEMONTF0000000000000040",
			Type:      "info",
			Title:     "Nouvelle officine",
			Message:   "Pharmacie des Monts Verts en attente de validation.",
			UserID:    "01JDEMOUSR0000000000ADMIN0",
			Read:      true,
			CreatedAt: date("2024-11-05T08:46:00Z"),
		},
	}
}

func demoStats() DashboardStats {
	return DashboardStats{
		Orders:        257,
		PendingOrders: 14,
		Officines:     4,
		Products:      6,
		LowStock:      2,
		Revenue:       17_153_860,
	}
}
