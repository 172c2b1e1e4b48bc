package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"EPESPO-inventario/internal/domain"
)

func TestPrintCustody(t *testing.T) {
	rows := []domain.CustodyRow{
		{AssetID: 3, ResponsibleID: 8, DepartmentID: 4, AssignmentID: 61},
		{AssetID: 1, ResponsibleID: 7, DepartmentID: 3, AssignmentID: 60,
			Responsible: &domain.Responsible{FirstName: "María", LastName: "Pérez"}},
	}
	assets := []domain.Asset{
		{ID: 1, Code: "E-EC-2026-001", Name: "Laptop", Category: domain.CategoryComputer},
		{ID: 3, Name: "Escritorio", Category: domain.CategoryFurniture},
	}

	var buf bytes.Buffer
	printCustody(&buf, rows, assets, 0)
	out := buf.String()

	assert.Contains(t, out, "María Pérez")
	assert.Contains(t, out, "E-EC-2026-001")
	assert.Contains(t, out, "S/C")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Laptop")), bytes.Index(buf.Bytes(), []byte("Escritorio")))

	buf.Reset()
	printCustody(&buf, rows, assets, 8)
	assert.NotContains(t, buf.String(), "Laptop")
	assert.Contains(t, buf.String(), "Escritorio")
}
