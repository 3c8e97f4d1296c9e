package appliance

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kozaktomas/face-console/internal/constants"
)

type enrollmentRequest struct {
	Name string `json:"name"`
}

// StartEnrollment opens a multi-pose enrollment for name on the appliance
func (a *Appliance) StartEnrollment(ctx context.Context, name string) (*EnrollmentStart, error) {
	const endpoint = "api/enrollment/start"
	result, err := doPostJSON[enrollmentStartResponse](ctx, a, endpoint, enrollmentRequest{Name: name})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, rejected(http.MethodPost, endpoint, result.Error)
	}

	total := result.TotalPoses
	if total <= 0 {
		total = constants.DefaultTotalPoses
	}
	return &EnrollmentStart{
		CurrentPose: result.CurrentPose,
		PoseIndex:   result.PoseIndex,
		TotalPoses:  total,
		Message:     result.Message,
	}, nil
}

// CaptureEnrollment captures the current pose for name.
// The returned PoseIndex is the appliance's cursor and must be stored as-is.
func (a *Appliance) CaptureEnrollment(ctx context.Context, name string) (*EnrollmentCapture, error) {
	const endpoint = "api/enrollment/capture"
	result, err := doPostJSON[enrollmentCaptureResponse](ctx, a, endpoint, enrollmentRequest{Name: name})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, rejected(http.MethodPost, endpoint, result.Error)
	}

	if result.Complete {
		return &EnrollmentCapture{Complete: true, Message: result.Message}, nil
	}
	if result.PoseIndex == nil {
		return nil, fmt.Errorf("%w: capture reply without pose_index", ErrUnexpectedShape)
	}
	return &EnrollmentCapture{
		NextPose:  result.NextPose,
		PoseIndex: *result.PoseIndex,
		Message:   result.Message,
	}, nil
}

// CancelEnrollment drops any enrollment in progress on the appliance
func (a *Appliance) CancelEnrollment(ctx context.Context) error {
	return a.postExpectSuccess(ctx, "api/enrollment/cancel")
}
