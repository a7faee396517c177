package points

import (
	"sort"

	"github.com/Dosada05/racket-rankings/models"
)

// ApplyRanking сортирует элементы по убыванию счёта и присваивает ранги по
// схеме competition ranking: равные счёты делят ранг, следующий отличный
// счёт получает ранг, равный своей 1-based позиции в отсортированном ряду.
// [100,100,50] → [1,1,3]; связки не сжимаются. tieBreak задаёт устойчивый
// порядок внутри равных счётов (обычно по имени) и может быть nil.
func ApplyRanking[T any](items []T, score func(T) int, tieBreak func(a, b T) bool) []T {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := score(items[i]), score(items[j])
		if si != sj {
			return si > sj
		}
		if tieBreak != nil {
			return tieBreak(items[i], items[j])
		}
		return false
	})
	return items
}

// Ranks возвращает ранг для каждого отсортированного по убыванию элемента.
// Вызывается после ApplyRanking.
func Ranks[T any](sorted []T, score func(T) int) []int {
	ranks := make([]int, len(sorted))
	for i := range sorted {
		if i > 0 && score(sorted[i]) == score(sorted[i-1]) {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// Paginate возвращает страницу уже отранжированного списка и метаданные
// пагинации. page и limit нормализуются к минимум 1.
func Paginate[T any](items []T, page, limit int) ([]T, models.Pagination) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	total := len(items)
	totalPages := (total + limit - 1) / limit
	skip := (page - 1) * limit

	var pageItems []T
	if skip < total {
		end := skip + limit
		if end > total {
			end = total
		}
		pageItems = items[skip:end]
	} else {
		pageItems = []T{}
	}

	return pageItems, models.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNext:     skip+len(pageItems) < total,
		HasPrev:     page > 1,
	}
}
