package handler

import (
	"errors"
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

// dateRange is an inclusive YYYY-MM-DD window. Entry dates are free text,
// so matching compares strings; a bound left empty is open.
type dateRange struct {
	start, end string
}

func (d dateRange) contains(date string) bool {
	if d.start != "" && date < d.start {
		return false
	}
	if d.end != "" && date > d.end {
		return false
	}
	return true
}

func (d dateRange) open() bool {
	return d.start == "" && d.end == ""
}

func parseDateQuery(r *http.Request, key string) (string, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return "", err
	}
	return value, nil
}

// parseDateRange reads the startDate and endDate query parameters.
func parseDateRange(r *http.Request) (dateRange, error) {
	start, err := parseDateQuery(r, "startDate")
	if err != nil {
		return dateRange{}, errors.New("invalid startDate")
	}
	end, err := parseDateQuery(r, "endDate")
	if err != nil {
		return dateRange{}, errors.New("invalid endDate")
	}
	if start != "" && end != "" && start > end {
		return dateRange{}, errors.New("startDate must be before endDate")
	}
	return dateRange{start: start, end: end}, nil
}
