// Package points содержит чистые алгоритмы ядра рейтинга: таблицу
// начисления очков, классификацию категорий, нормализацию строк,
// генерацию членских идентификаторов и ранжирование.
package points

import "strconv"

// pointsTable — фиксированная таблица "позиция → очки". Не конфигурируется.
var pointsTable = map[int]int{
	1: 100,
	2: 75,
	3: 50,
	4: 50,
	5: 25, 6: 25, 7: 25, 8: 25,
	9: 15, 10: 15, 11: 15, 12: 15, 13: 15, 14: 15, 15: 15, 16: 15,
}

// displayTable — отображаемые названия позиций.
var displayTable = map[int]string{
	1: "Winner",
	2: "Runner-Up",
	3: "Semifinal", 4: "Semifinal",
	5: "Quarter Final", 6: "Quarter Final", 7: "Quarter Final", 8: "Quarter Final",
	9: "Pre-Quarter", 10: "Pre-Quarter", 11: "Pre-Quarter", 12: "Pre-Quarter",
	13: "Pre-Quarter", 14: "Pre-Quarter", 15: "Pre-Quarter", 16: "Pre-Quarter",
}

// ForPosition возвращает очки за позицию; позиции вне таблицы дают 0.
func ForPosition(position int) int {
	return pointsTable[position]
}

// DisplayPosition возвращает отображаемое название позиции
// ("Winner", "Semifinal", ...), для позиций вне таблицы — саму позицию.
func DisplayPosition(position int) string {
	if label, ok := displayTable[position]; ok {
		return label
	}
	if position == 0 {
		return ""
	}
	return strconv.Itoa(position)
}
