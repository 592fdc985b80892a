package user

// Badge is a display label plus a colour token for the admin UI.
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

const colorNeutral = "gray"

var roleBadges = map[Role]Badge{
	RoleAdmin:       {Label: "Admin", Color: "red"},
	RoleDokter:      {Label: "Dokter", Color: "blue"},
	RoleApoteker:    {Label: "Apoteker", Color: "green"},
	RoleKasir:       {Label: "Kasir", Color: "yellow"},
	RoleFrontOffice: {Label: "Front Office", Color: "purple"},
}

// RoleBadge labels a role. Unknown roles show their raw value in gray.
func RoleBadge(role Role) Badge {
	if !role.Valid() {
		return Badge{Label: string(role), Color: colorNeutral}
	}
	return roleBadges[role]
}

func StatusBadge(active bool) Badge {
	if active {
		return Badge{Label: "Active", Color: "green"}
	}
	return Badge{Label: "Inactive", Color: "red"}
}

// Summary backs the dashboard cards above the directory table.
type Summary struct {
	Total    int `json:"total"`
	Dokter   int `json:"dokter"`
	Apoteker int `json:"apoteker"`
	Active   int `json:"active"`
}

func Summarize(users []User) Summary {
	s := Summary{Total: len(users)}
	for _, u := range users {
		switch u.Role {
		case RoleDokter:
			s.Dokter++
		case RoleApoteker:
			s.Apoteker++
		}
		if u.IsActive {
			s.Active++
		}
	}
	return s
}

// Row is a directory entry with its badges resolved.
type Row struct {
	User
	RoleBadge          Badge `json:"role_badge"`
	StatusBadge        Badge `json:"status_badge"`
	ShowSpecialization bool  `json:"show_specialization"`
}

func NewRow(u User) Row {
	return Row{
		User:               u,
		RoleBadge:          RoleBadge(u.Role),
		StatusBadge:        StatusBadge(u.IsActive),
		ShowSpecialization: u.ShowsSpecialization() && u.Specialization != "",
	}
}

func Rows(users []User) []Row {
	rows := make([]Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, NewRow(u))
	}
	return rows
}
