package schema

// Column keys shared across layouts.
const (
	KeyBuilding   = "building"
	KeyGrade      = "grade"
	KeySubject    = "subject"
	KeyTitle      = "title"
	KeyAuthors    = "authors"
	KeyPublisher  = "publisher"
	KeyYear       = "year"
	KeyISBN       = "isbn"
	KeyFPU        = "fpu"
	KeyTotal      = "total"
	KeyAvailable  = "available"
	KeyInUse      = "in_use"
	KeyPerStudent = "per_student"
	KeyLetter     = "letter"
	KeyStudents   = "students"
)

// SelfTemplate is the service's own registry template.
var SelfTemplate = Layout{
	Sheet: "Реестр",
	Columns: []Column{
		{KeyBuilding, []string{"buildingCode", "код корпуса"}},
		{KeyGrade, []string{"grade", "параллель"}},
		{KeySubject, []string{"subject", "предмет"}},
		{KeyTitle, []string{"title", "название"}},
		{KeyAuthors, []string{"authors", "авторы"}},
		{KeyYear, []string{"year", "год издания", "год"}},
		{KeyISBN, []string{"isbn"}},
		{KeyTotal, []string{"total", "всего"}},
		{KeyAvailable, []string{"available", "свободно"}},
		{KeyInUse, []string{"inUse", "в использовании"}},
	},
}

// Citywide is the city education system export.
var Citywide = Layout{
	Columns: []Column{
		{KeyTitle, []string{"название"}},
		{KeySubject, []string{"предмет"}},
		{KeyGrade, []string{"параллель"}},
		{KeyAuthors, []string{"автор(-ы)", "авторы", "автор"}},
		{KeyPublisher, []string{"издательство"}},
		{KeyYear, []string{"год издания"}},
		{KeyFPU, []string{"№ фпу", "фпу"}},
		{KeyTotal, []string{"общее кол-во экземпляров"}},
		{KeyAvailable, []string{"кол-во свободных экземпляров"}},
	},
}

// LibrarianStock is the per-building stock template filled by librarians.
var LibrarianStock = Layout{
	Sheet: "Фонд",
	Columns: []Column{
		{KeySubject, []string{"Предмет", "subject"}},
		{KeyGrade, []string{"Параллель", "grade"}},
		{KeyTitle, []string{"Название", "title"}},
		{KeyAuthors, []string{"Авторы", "authors"}},
		{KeyPublisher, []string{"Издательство", "publisher"}},
		{KeyYear, []string{"Год издания", "year"}},
		{KeyISBN, []string{"ISBN"}},
		{KeyTotal, []string{"Всего", "total"}},
		{KeyAvailable, []string{"Свободно", "available"}},
		{KeyInUse, []string{"В использовании", "inuse"}},
	},
}

// Curriculum is the positional curriculum plan.
var Curriculum = Layout{
	Sheet: "Учебный план",
	Columns: []Column{
		{KeyGrade, []string{"grade"}},
		{KeySubject, []string{"subject"}},
		{KeyISBN, []string{"isbn"}},
		{KeyPerStudent, []string{"perStudent"}},
	},
}

// Classes is the explicit four-column enrollment layout.
var Classes = Layout{
	Sheet: "Численность",
	Columns: []Column{
		{KeyBuilding, []string{"buildingCode"}},
		{KeyGrade, []string{"grade"}},
		{KeyLetter, []string{"letter"}},
		{KeyStudents, []string{"students"}},
	},
}

// FutureClasses has the Classes columns for a projected academic year.
var FutureClasses = Layout{
	Sheet:   "Будущий контингент",
	Columns: Classes.Columns,
}
