package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/felixgeelhaar/nextup/internal/recommendation/domain"
)

// Fingerprint hashes the parts of a snapshot and task list that affect
// scoring. The capture time is excluded so that repeated evaluations within
// the TTL share an entry. Tasks carrying an update timestamp contribute
// only id, status and that timestamp.
func Fingerprint(snapshot domain.ContextSnapshot, tasks []domain.TaskRef) uint64 {
	d := xxhash.New()
	field := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}

	field(string(snapshot.TimeOfDay))
	field(strconv.Itoa(int(snapshot.DayOfWeek)))
	field(strconv.FormatBool(snapshot.IsWeekend))
	field(string(snapshot.EnergyLevel))
	field(string(snapshot.WorkPattern))
	field(strconv.Itoa(snapshot.CompletedTasksToday))
	field(strconv.Itoa(len(tasks)))

	for _, t := range tasks {
		field(t.ID)
		field(string(t.Status))
		if !t.UpdatedAt.IsZero() {
			field(strconv.FormatInt(t.UpdatedAt.UnixNano(), 10))
			continue
		}
		field(t.Priority.String())
		if t.DueDate != nil {
			field(strconv.FormatInt(t.DueDate.UnixNano(), 10))
		} else {
			field("-")
		}
		field(strconv.Itoa(t.EstimatedMinutes()))
	}
	return d.Sum64()
}
