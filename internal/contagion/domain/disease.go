package domain

import "fmt"

// DiseaseStatus 只能向前推进：active → cured → eradicated。
type DiseaseStatus string

const (
	Active     DiseaseStatus = "active"
	Cured      DiseaseStatus = "cured"
	Eradicated DiseaseStatus = "eradicated"
)

func (s DiseaseStatus) rank() int {
	switch s {
	case Active:
		return 0
	case Cured:
		return 1
	case Eradicated:
		return 2
	}
	return -1
}

func (s DiseaseStatus) Valid() bool {
	return s.rank() >= 0
}

// CanTransition 只允许一步一步向前：active→cured、cured→eradicated。
func CanTransition(from, to DiseaseStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return to.rank() == from.rank()+1
}

func ParseDiseaseStatus(s string) (DiseaseStatus, error) {
	st := DiseaseStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown disease status %q", s)
	}
	return st, nil
}
