package domain

type ElectionStatus string

const (
	StatusUpcoming  ElectionStatus = "Upcoming"
	StatusActive    ElectionStatus = "Active"
	StatusCompleted ElectionStatus = "Completed"
)

func (s ElectionStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Election ids are assigned by the admin and are not checked for uniqueness.
type Election struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Status ElectionStatus `json:"status"`
	Date   string         `json:"date"`
}

func (e Election) IsActive() bool {
	return e.Status == StatusActive
}

func ActiveElections(elections []Election) []Election {
	active := make([]Election, 0, len(elections))
	for _, e := range elections {
		if e.IsActive() {
			active = append(active, e)
		}
	}
	return active
}
