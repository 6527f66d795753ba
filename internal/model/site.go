package model

import "fmt"

// FleetSite is the read-only aggregate pseudo-site
const FleetSite = "FLEET"

// DefaultSites is the built-in site registry (설정으로 대체 가능)
var DefaultSites = []string{"GREENFIELD", "HARBORVIEW", "MIDLANDS", "NORTHGATE"}

// SiteError is returned when a write operation receives an unusable site
type SiteError struct {
	Site   string
	Reason string
}

func (e *SiteError) Error() string {
	if e.Site == "" {
		return "사이트가 지정되지 않았습니다"
	}
	return fmt.Sprintf("사이트 '%s' 사용 불가: %s", e.Site, e.Reason)
}

// ValidateWriteSite rejects blank or fleet sites before any database work
func ValidateWriteSite(site string, known []string) error {
	if site == "" {
		return &SiteError{}
	}
	if site == FleetSite {
		return &SiteError{Site: site, Reason: "읽기 전용 집계 사이트입니다"}
	}
	if len(known) == 0 {
		return nil
	}
	for _, s := range known {
		if s == site {
			return nil
		}
	}
	return &SiteError{Site: site, Reason: fmt.Sprintf("등록된 사이트가 아닙니다 (가능: %v)", known)}
}
