package services

// UnitOptions lists the units offered when editing a line item. Units stay
// free text; this only seeds the picker.
var UnitOptions = []string{
	"m3",
	"m2",
	"m",
	"kg",
	"tonne",
	"bag",
	"litre",
	"nr",
	"item",
	"sum",
}

// CategoryOptions lists the BOQ categories used by generated quotations.
var CategoryOptions = []string{
	"Earthworks",
	"Structural Concrete",
	"Formwork",
	"Foundation",
	"Structure",
	"Walling",
	"Roofing",
	"Flooring",
	"Finishing",
	"General",
}

// SourceOptions lists the origin labels a line item can carry.
var SourceOptions = []string{"CostX", "Revit", "Candy", "Estimator", "Manual"}

// TaxOptions lists the common VAT rates in percent.
var TaxOptions = []int{0, 8, 16}

// Counties lists the counties offered by the location step of the wizard.
var Counties = []string{
	"Nairobi", "Mombasa", "Nakuru", "Kisumu", "Eldoret", "Thika",
	"Malindi", "Nyeri", "Meru", "Embu", "Machakos", "Kitui",
	"Garissa", "Isiolo", "Marsabit", "Mandera", "Wajir", "Turkana",
}

// ProjectTypes and ProjectStatuses are the select values of the projects collection.
var ProjectTypes = []string{"residential", "commercial", "industrial", "infrastructure"}

var ProjectStatuses = []string{
	"planning", "design", "quotation", "approved",
	"construction", "completed", "cancelled",
}
