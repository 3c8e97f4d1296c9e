package appliance

import "context"

// Status retrieves the current appliance status
func (a *Appliance) Status(ctx context.Context) (*SystemStatus, error) {
	result, err := doGetJSON[statusResponse](ctx, a, "api/status")
	if err != nil {
		return nil, err
	}

	status := &SystemStatus{
		CameraActive:      result.CameraActive,
		RecognitionActive: result.RecognitionActive,
		EnrolledUserCount: len(result.Users),
		LastRecognition:   result.LatestRecognition.toRecognition(),
	}
	if result.EnrolledUsers != nil {
		status.EnrolledUserCount = *result.EnrolledUsers
	}
	return status, nil
}
