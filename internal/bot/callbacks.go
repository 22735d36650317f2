package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback payload actions. Payloads are colon-delimited "action:arg..."
// strings; arguments are numeric ids or pages so they can never contain
// the delimiter themselves.
const (
	cbNone = "none"

	cbUsersRender           = "usersRender"
	cbApprove               = "Approve"
	cbDisapprove            = "Disapprove"
	cbRequestsRender        = "requestsRender"
	cbOpenRequest           = "openRequest"
	cbStudyGroupsRender     = "studyGroupsRender"
	cbOpenStudyGroup        = "openStudyGroup"
	cbSelectStudyGroup      = "selectStudyGroup"
	cbGroupHomeworks        = "groupHomeworks"
	cbHomeworkUsers         = "homeworkUsers"
	cbGradeMenu             = "gradeMenu"
	cbSetGrade              = "setGrade"
	cbDeleteHomework        = "deleteHomework"
	cbConfirmDeleteHomework = "confirmDeleteHomework"
	cbCancelDeleteHomework  = "cancelDeleteHomework"
	cbHomeworks             = "homeworks"
	cbOpenHomework          = "openHomework"
	cbSendHomework          = "sendHomework"
	cbDeleteUserHomework    = "deleteUserHomework"
)

func encodeCallback(action string, args ...int64) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, action)
	for _, a := range args {
		parts = append(parts, strconv.FormatInt(a, 10))
	}
	return strings.Join(parts, ":")
}

// callbackPayload is a decoded inline-button press.
type callbackPayload struct {
	Action string
	Args   []string
}

func decodeCallback(data string) callbackPayload {
	parts := strings.Split(data, ":")
	return callbackPayload{Action: parts[0], Args: parts[1:]}
}

// Int64 parses the positional argument as an id. The second return value
// is false for missing or non-numeric arguments.
func (p callbackPayload) Int64(i int) (int64, bool) {
	if i >= len(p.Args) {
		return 0, false
	}
	v, err := strconv.ParseInt(p.Args[i], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Page parses the positional argument as a page index, defaulting to 0.
func (p callbackPayload) Page(i int) int {
	v, ok := p.Int64(i)
	if !ok || v < 0 {
		return 0
	}
	return int(v)
}

// Str returns the positional argument verbatim.
func (p callbackPayload) Str(i int) string {
	if i >= len(p.Args) {
		return ""
	}
	return p.Args[i]
}

func (p callbackPayload) String() string {
	return fmt.Sprintf("%s:%s", p.Action, strings.Join(p.Args, ":"))
}
