package domain

import "time"

// Department represents a business unit tickets are filed against.
type Department struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// SeedDepartment is one entry of the fixed starter set created on first run.
type SeedDepartment struct {
	Name        string
	Description string
}

// SeedDepartments returns the starter set ensured at startup.
func SeedDepartments() []SeedDepartment {
	return []SeedDepartment{
		{Name: "Atendimento", Description: "Departamento de Atendimento"},
		{Name: "Vendas", Description: "Departamento de Vendas"},
		{Name: "Marketing", Description: "Departamento de Marketing"},
		{Name: "TI", Description: "Tecnologia da Informação"},
		{Name: "Recursos Humanos", Description: "Departamento de RH"},
		{Name: "Financeiro", Description: "Departamento Financeiro"},
		{Name: "Operações", Description: "Departamento de Operações"},
	}
}
