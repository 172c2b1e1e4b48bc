package domain

import "sort"

type Category string

const (
	CategoryComputer   Category = "Equipo de Computo"
	CategoryOffice     Category = "Equipo de Oficina"
	CategoryFurniture  Category = "Muebles y Enseres"
	CategoryFacilities Category = "Instalaciones, Maquinarias y Herramientas"
)

// Categories is the canonical display order.
var Categories = []Category{
	CategoryComputer,
	CategoryOffice,
	CategoryFurniture,
	CategoryFacilities,
}

var codePrefixes = map[Category]string{
	CategoryComputer:   "E-EC",
	CategoryOffice:     "E-EO",
	CategoryFurniture:  "E-ME",
	CategoryFacilities: "E-IM",
}

func (c Category) Valid() bool {
	_, ok := codePrefixes[c]
	return ok
}

// CodePrefix returns the prefix used for asset codes of this category.
func (c Category) CodePrefix() string { return codePrefixes[c] }

// HasSerial reports whether assets of this category carry brand/model/serial.
func (c Category) HasSerial() bool {
	return c == CategoryComputer || c == CategoryOffice
}

func (c Category) rank() int {
	for i, k := range Categories {
		if k == c {
			return i
		}
	}
	return len(Categories)
}

// SortCategories orders categories canonically; unknown names go last,
// alphabetically.
func SortCategories(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		ri, rj := cats[i].rank(), cats[j].rank()
		if ri != rj {
			return ri < rj
		}
		return cats[i] < cats[j]
	})
}
