package maturity

import (
	"math"
	"reflect"

	"github.com/ashita-ai/manabi/internal/model"
)

// tally accumulates weighted field counts across profile sections.
type tally struct {
	total     int
	completed int
}

// visit counts the direct fields of a recorded section. Absent sections
// contribute nothing.
func visit[T any](t *tally, sec model.Section[T], weight int) {
	v, ok := sec.Get()
	if !ok {
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Struct {
		return
	}
	for i := range rv.NumField() {
		if !rv.Type().Field(i).IsExported() {
			continue
		}
		t.total += weight
		if filled(rv.Field(i)) {
			t.completed += weight
		}
	}
}

// filled reports whether a field carries a value: nil pointers and
// interfaces, empty strings, and empty slices or maps do not.
func filled(f reflect.Value) bool {
	switch f.Kind() {
	case reflect.Pointer, reflect.Interface:
		return !f.IsNil()
	case reflect.String, reflect.Slice, reflect.Map:
		return f.Len() > 0
	default:
		return true
	}
}

func (t tally) percent() int {
	if t.total == 0 {
		return 0
	}
	return int(math.Round(float64(t.completed) / float64(t.total) * 100))
}

// CalculateDataCompleteness returns the weighted percentage (0-100) of
// populated fields across the school's recorded sections and, when present,
// the latest report's sections. It returns 0 when nothing is recorded.
func CalculateDataCompleteness(school model.School, latest *model.ICTReport) int {
	var t tally
	visit(&t, school.Infrastructure, 2)
	visit(&t, school.Internet, 2)
	visit(&t, school.Software, 1)
	visit(&t, school.PedagogicalUsage, 1)
	visit(&t, school.StudentEngagement, 1)
	visit(&t, school.CommunityEngagement, 1)
	visit(&t, school.HumanCapacity, 2)
	visit(&t, school.Governance, 2)
	if latest != nil {
		visit(&t, latest.Infrastructure, 2)
		visit(&t, latest.Usage, 2)
		visit(&t, latest.Software, 1)
		visit(&t, latest.Capacity, 2)
	}
	return t.percent()
}
