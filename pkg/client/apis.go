package client

import (
	"encoding/json"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/openbrake/brakectl/pkg/brake"
	"github.com/openbrake/brakectl/pkg/diag"
)

// CalibrationInfo mirrors the daemon's GET /calibration response.
type CalibrationInfo struct {
	WorkingOffset uint16 `json:"workingOffset"`
	StoredOffset  uint16 `json:"storedOffset"`
	Signature     uint32 `json:"signature"`
}

// FaultInfo mirrors the daemon's GET /fault response.
type FaultInfo struct {
	Code uint8  `json:"code"`
	Name string `json:"name"`
}

func (c *Client) GetStatus() (*brake.Status, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get brake status")
	}
	var st brake.Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal brake status")
	}
	return &st, nil
}

// Apply commands a target pressure. A rejected command (interlock or
// pressure limit) comes back as an error carrying the daemon's reason.
func (c *Client) Apply(kpa uint16) (*brake.Status, error) {
	ret, err := c.Post("/apply", strconv.Itoa(int(kpa)))
	if err != nil {
		return nil, err
	}
	var st brake.Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal apply response")
	}
	return &st, nil
}

func (c *Client) Release() (*brake.Status, error) {
	ret, err := c.Post("/release", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to release brake")
	}
	var st brake.Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal release response")
	}
	return &st, nil
}

func (c *Client) SetTimingOffset(offset uint16) (string, error) {
	return c.Put("/timing-offset", strconv.Itoa(int(offset)))
}

func (c *Client) GetCalibration() (*CalibrationInfo, error) {
	ret, err := c.Get("/calibration")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get calibration")
	}
	var info CalibrationInfo
	if err := json.Unmarshal([]byte(ret), &info); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal calibration")
	}
	return &info, nil
}

// StoreCalibration persists a new pressure offset to NVM.
func (c *Client) StoreCalibration(offset uint16) (string, error) {
	return c.Put("/calibration", strconv.Itoa(int(offset)))
}

// RunDiagnostics triggers an immediate diagnostics pass.
func (c *Client) RunDiagnostics() (*brake.Status, error) {
	ret, err := c.Post("/diagnostics", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to run diagnostics")
	}
	var st brake.Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal diagnostics response")
	}
	return &st, nil
}

func (c *Client) GetFault() (*FaultInfo, error) {
	ret, err := c.Get("/fault")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get fault")
	}
	var info FaultInfo
	if err := json.Unmarshal([]byte(ret), &info); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal fault")
	}
	return &info, nil
}

// ClearFault clears the active fault only if it matches code.
func (c *Client) ClearFault(code diag.Code) (string, error) {
	return c.Delete("/fault", strconv.Itoa(int(code)))
}

// ResetFaults clears the fault recorder unconditionally.
func (c *Client) ResetFaults() (string, error) {
	return c.Post("/diagnostics/reset", "")
}

func (c *Client) SetTemperature(celsius uint16) (string, error) {
	return c.Put("/temperature", strconv.Itoa(int(celsius)))
}

// DisengageInterlock drops the safety interlock until the next init.
func (c *Client) DisengageInterlock() (string, error) {
	return c.Post("/interlock/disengage", "")
}

// Reinit re-runs the power-on init sequence, re-engaging the interlock.
func (c *Client) Reinit() (*brake.Status, error) {
	ret, err := c.Post("/init", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to reinit controller")
	}
	var st brake.Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal init response")
	}
	return &st, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return strings.Trim(ret, "\"\n"), nil
}
