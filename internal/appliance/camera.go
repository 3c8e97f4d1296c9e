package appliance

import (
	"context"
	"net/http"
)

// StartCamera asks the appliance to open its camera
func (a *Appliance) StartCamera(ctx context.Context) error {
	return a.postExpectSuccess(ctx, "api/start_camera")
}

// StopCamera asks the appliance to release its camera
func (a *Appliance) StopCamera(ctx context.Context) error {
	return a.postExpectSuccess(ctx, "api/stop_camera")
}

// postExpectSuccess issues a body-less POST whose reply is a {success} envelope.
func (a *Appliance) postExpectSuccess(ctx context.Context, endpoint string) error {
	result, err := doPostJSON[successResponse](ctx, a, endpoint, nil)
	if err != nil {
		return err
	}
	if !result.Success {
		return rejected(http.MethodPost, endpoint, result.Error)
	}
	return nil
}
