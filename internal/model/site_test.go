package model

import "testing"

func TestValidateWriteSite(t *testing.T) {
	known := []string{"GREENFIELD", "HARBORVIEW"}

	if err := ValidateWriteSite("GREENFIELD", known); err != nil {
		t.Errorf("등록된 사이트가 거부됨: %v", err)
	}

	if err := ValidateWriteSite("", known); err == nil {
		t.Error("빈 사이트가 통과함")
	}

	if err := ValidateWriteSite("UNKNOWN", known); err == nil {
		t.Error("미등록 사이트가 통과함")
	}
}

func TestValidateWriteSiteRejectsFleet(t *testing.T) {
	// FLEET은 읽기 전용 가상 사이트: 어떤 설정에서도 쓰기 불가
	if err := ValidateWriteSite(FleetSite, DefaultSites); err == nil {
		t.Error("FLEET 쓰기가 통과함")
	}
	if err := ValidateWriteSite(FleetSite, nil); err == nil {
		t.Error("사이트 목록이 비어도 FLEET 쓰기가 통과함")
	}
}

func TestValidateWriteSiteEmptyKnownList(t *testing.T) {
	// 사이트 목록이 비어 있으면 FLEET 외 모든 사이트 허용
	if err := ValidateWriteSite("ANYSITE", nil); err != nil {
		t.Errorf("빈 목록에서 일반 사이트가 거부됨: %v", err)
	}
}
