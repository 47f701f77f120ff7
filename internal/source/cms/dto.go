package cms

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/timmy/vodhub/internal/domain"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or numeric string; anything else decodes to 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// listResponse covers both ac=videolist and ac=list payloads.
type listResponse struct {
	Code      flexInt     `json:"code"`
	Msg       string      `json:"msg"`
	Page      flexInt     `json:"page"`
	PageCount flexInt     `json:"pagecount"`
	Limit     flexString  `json:"limit"`
	Total     flexInt     `json:"total"`
	List      []vodItem   `json:"list"`
	Class     []classItem `json:"class"`
}

type vodItem struct {
	VodID      flexString `json:"vod_id"`
	VodName    string     `json:"vod_name"`
	TypeID     flexInt    `json:"type_id"`
	TypeName   string     `json:"type_name"`
	VodPic     string     `json:"vod_pic"`
	VodYear    flexString `json:"vod_year"`
	VodScore   flexString `json:"vod_score"`
	VodTime    string     `json:"vod_time"`
	VodRemarks string     `json:"vod_remarks"`
}

type classItem struct {
	TypeID   flexInt `json:"type_id"`
	TypePID  flexInt `json:"type_pid"`
	TypeName string  `json:"type_name"`
}

const vodTimeLayout = "2006-01-02 15:04:05"

func (v vodItem) toRecord(sourceID string) domain.VideoRecord {
	return domain.VideoRecord{
		ID:           string(v.VodID),
		Title:        v.VodName,
		Poster:       v.VodPic,
		Year:         v.year(),
		Rating:       string(v.VodScore),
		Remarks:      v.VodRemarks,
		CategoryID:   int(v.TypeID),
		CategoryName: v.TypeName,
		SourceID:     sourceID,
	}
}

// year prefers vod_year and falls back to the year of vod_time.
func (v vodItem) year() string {
	if y := strings.TrimSpace(string(v.VodYear)); y != "" && y != "0" {
		return y
	}
	if v.VodTime == "" {
		return ""
	}
	t, err := time.Parse(vodTimeLayout, v.VodTime)
	if err != nil {
		if len(v.VodTime) >= 4 {
			if _, err := strconv.Atoi(v.VodTime[:4]); err == nil {
				return v.VodTime[:4]
			}
		}
		return ""
	}
	return strconv.Itoa(t.Year())
}

func (c classItem) toCategory() domain.Category {
	return domain.Category{
		TypeID:       int(c.TypeID),
		ParentTypeID: int(c.TypePID),
		Name:         c.TypeName,
	}
}
