package points

import (
	"strings"

	"github.com/Dosada05/racket-rankings/models"
)

// doublesIndicators — лексические признаки парной категории в имени листа.
// Проверка подстроками сохраняет поведение исходной эвристики: "MS" не
// содержит ни одного признака и классифицируется как singles, тогда как
// "MD", "Mixed Doubles" или "XD U19" дают doubles.
var doublesIndicators = []string{"d", "doubles", "double", "gd", "bd", "xd", "md", "wd"}

// DetectCategoryType классифицирует имя листа (категории) как singles или
// doubles. Пустые и нераспознанные имена считаются singles.
func DetectCategoryType(categoryName string) models.CategoryType {
	name := strings.ToLower(strings.TrimSpace(categoryName))
	if name == "" {
		return models.CategorySingles
	}
	for _, indicator := range doublesIndicators {
		if strings.Contains(name, indicator) {
			return models.CategoryDoubles
		}
	}
	return models.CategorySingles
}
