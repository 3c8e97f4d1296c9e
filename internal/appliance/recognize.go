package appliance

import (
	"context"
	"net/http"
)

// Recognize runs one recognition against the current camera frame.
// A reply of {success:false, result} is returned without error: it is a
// valid negative result. Non-2xx replies are returned as *APIError.
func (a *Appliance) Recognize(ctx context.Context) (*RecognizeReply, error) {
	return doPostJSON[RecognizeReply](ctx, a, "api/recognize", nil)
}

// SimpleRecognize runs the simple-mode recognition, which also returns the face crop
func (a *Appliance) SimpleRecognize(ctx context.Context) (*RecognizeReply, error) {
	return doPostJSON[RecognizeReply](ctx, a, "api/simple/recognize", nil)
}

// SimpleEnroll enrolls name from a single frame and returns the appliance message
func (a *Appliance) SimpleEnroll(ctx context.Context, name string) (string, error) {
	const endpoint = "api/simple/enroll"
	result, err := doPostJSON[successResponse](ctx, a, endpoint, enrollmentRequest{Name: name})
	if err != nil {
		return "", err
	}
	if !result.Success {
		return "", rejected(http.MethodPost, endpoint, result.Error)
	}
	return result.Message, nil
}

// SimpleStatus retrieves the simple-mode status (camera flag and user names)
func (a *Appliance) SimpleStatus(ctx context.Context) (*SimpleStatus, error) {
	const endpoint = "api/simple/status"
	result, err := doGetJSON[simpleStatusResponse](ctx, a, endpoint)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, rejected(http.MethodGet, endpoint, result.Error)
	}
	users := result.Users
	if users == nil {
		users = []string{}
	}
	return &SimpleStatus{CameraActive: result.CameraActive, Users: users}, nil
}
