package schema

// Report sheet headers.
var (
	ReconciliationHeaders = []string{"Корпус", "Параллель", "Предмет", "Учебник", "Нужно", "Есть", "Дефицит"}
	SubjectSummaryHeaders = []string{"Предмет", "Нужно", "Есть", "Дефицит"}
	GradeSummaryHeaders   = []string{"Параллель", "Нужно", "Есть", "Дефицит"}
	PlanHeaders           = []string{"Параллель", "Предмет", "Учебник", "ISBN / ключ", "На ученика", "Численность", "Нужно", "В наличии", "Дефицит"}
	InventoryHeaders      = []string{"Параллель", "Предмет", "Учебник", "Всего", "Свободно", "У учеников", "В кабинетах", "Ожидается", "Расхождение", "Примечание"}
)

// Report sheet names.
const (
	ReconciliationSheetPrefix = "Сверка "
	SubjectSummarySheet       = "Итоги по предметам"
	GradeSummarySheet         = "Итоги по параллелям"
	PlanSheet                 = "План закупки"
	InventorySheet            = "Инвентаризация"
)
