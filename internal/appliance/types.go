package appliance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Confidence is a recognition confidence normalized to [0,1].
// The appliance reports it as a fraction (0.87), a percentage (87.5)
// or a percentage string ("87.5%"); all three decode to the same value.
type Confidence float64

func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = 0
		return nil
	}

	var value float64
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal confidence: %w", err)
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		if s == "" {
			*c = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("unmarshal confidence %q: %w", s, err)
		}
		value = parsed
	} else if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("unmarshal confidence: %w", err)
	}

	*c = Confidence(normalizeConfidence(value))
	return nil
}

// normalizeConfidence maps a fraction or percentage into [0,1].
func normalizeConfidence(v float64) float64 {
	if v > 1 {
		v /= 100
	}
	return min(max(v, 0), 1)
}

// Percent returns the confidence as a percentage for display.
func (c Confidence) Percent() float64 {
	return float64(c) * 100
}

// Recognition is the latest identity the appliance reports having recognized.
type Recognition struct {
	Identity   string     `json:"identity" yaml:"identity"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Timestamp  string     `json:"timestamp" yaml:"timestamp"`
}

// SystemStatus is one observation of the appliance state.
type SystemStatus struct {
	CameraActive      bool         `json:"camera_active" yaml:"camera_active"`
	RecognitionActive bool         `json:"recognition_active" yaml:"recognition_active"`
	EnrolledUserCount int          `json:"enrolled_user_count" yaml:"enrolled_user_count"`
	LastRecognition   *Recognition `json:"last_recognition,omitempty" yaml:"last_recognition,omitempty"`
}

// latestRecognitionWire accepts both shapes seen for latest_recognition:
// {identity, confidence, timestamp} and the appliance's {name, time}.
type latestRecognitionWire struct {
	Identity   string     `json:"identity"`
	Name       *string    `json:"name"`
	Confidence Confidence `json:"confidence"`
	Timestamp  string     `json:"timestamp"`
	Time       float64    `json:"time"`
}

func (w *latestRecognitionWire) toRecognition() *Recognition {
	if w == nil {
		return nil
	}
	identity := w.Identity
	if identity == "" && w.Name != nil {
		identity = *w.Name
	}
	if identity == "" {
		return nil
	}
	timestamp := w.Timestamp
	if timestamp == "" && w.Time > 0 {
		sec := int64(w.Time)
		nsec := int64((w.Time - float64(sec)) * float64(time.Second))
		timestamp = time.Unix(sec, nsec).UTC().Format(time.RFC3339)
	}
	return &Recognition{Identity: identity, Confidence: w.Confidence, Timestamp: timestamp}
}

type statusResponse struct {
	CameraActive      bool                   `json:"camera_active"`
	RecognitionActive bool                   `json:"recognition_active"`
	EnrolledUsers     *int                   `json:"enrolled_users"`
	Users             []string               `json:"users"`
	LatestRecognition *latestRecognitionWire `json:"latest_recognition"`
}

// EnrolledUser is one entry of the appliance's user list. The name is the key.
type EnrolledUser struct {
	Name            string `json:"name" yaml:"name"`
	FaceSampleCount int    `json:"face_sample_count" yaml:"face_sample_count"`
}

// UserListShape records which of the two list-users response shapes was seen.
type UserListShape string

// The appliance returns a bare array today; the wrapped form is accepted for
// older firmware and proxies. Both are normalized to UserList.Users.
const (
	UserListArray   UserListShape = "array"
	UserListWrapped UserListShape = "wrapped"
)

// UserList is the normalized result of the list-users endpoint.
type UserList struct {
	Users []EnrolledUser
	Shape UserListShape
}

// Names returns the user names in server order.
func (l *UserList) Names() []string {
	names := make([]string, 0, len(l.Users))
	for _, u := range l.Users {
		names = append(names, u.Name)
	}
	return names
}

// successResponse is the generic {success, message, error} envelope.
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// RecognizeReply is the appliance answer to a recognize request.
// Success=false with Result set is a valid negative (no face / no match),
// not a failure.
type RecognizeReply struct {
	Success    bool       `json:"success"`
	Identity   string     `json:"identity"`
	Name       string     `json:"name"`
	Confidence Confidence `json:"confidence"`
	Timestamp  string     `json:"timestamp"`
	Result     string     `json:"result"`
	FaceImage  string     `json:"face_image"`
	Error      string     `json:"error"`
}

// Who returns the recognized identity, preferring identity over name.
func (r *RecognizeReply) Who() string {
	if r.Identity != "" {
		return r.Identity
	}
	return r.Name
}

// EnrollmentStart is the reply to a successful start-enrollment call.
type EnrollmentStart struct {
	CurrentPose string
	PoseIndex   int
	TotalPoses  int
	Message     string
}

type enrollmentStartResponse struct {
	Success     bool   `json:"success"`
	CurrentPose string `json:"current_pose"`
	PoseIndex   int    `json:"pose_index"`
	TotalPoses  int    `json:"total_poses"`
	Message     string `json:"message"`
	Error       string `json:"error"`
}

// EnrollmentCapture is the reply to a successful capture call.
// When Complete is true NextPose and PoseIndex are unset.
type EnrollmentCapture struct {
	Complete  bool
	NextPose  string
	PoseIndex int
	Message   string
}

type enrollmentCaptureResponse struct {
	Success   bool   `json:"success"`
	Complete  bool   `json:"complete"`
	NextPose  string `json:"next_pose"`
	PoseIndex *int   `json:"pose_index"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

// SimpleStatus is the reply of the simple-mode status endpoint.
type SimpleStatus struct {
	CameraActive bool     `json:"camera_active" yaml:"camera_active"`
	Users        []string `json:"users" yaml:"users"`
}

type simpleStatusResponse struct {
	Success      bool     `json:"success"`
	CameraActive bool     `json:"camera_active"`
	Users        []string `json:"users"`
	Error        string   `json:"error"`
}
