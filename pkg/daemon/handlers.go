package daemon

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openbrake/brakectl/pkg/brake"
	"github.com/openbrake/brakectl/pkg/diag"
	"github.com/openbrake/brakectl/pkg/version"
)

func getStatus(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, ctrl.Status())
}

func postApply(c *gin.Context) {
	var kpa int
	if err := c.BindJSON(&kpa); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	if kpa < 0 || kpa > 0xFFFF {
		err := fmt.Errorf("pressure must be between 0 and 65535 kPa, got %d", kpa)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	ctrl.Apply(uint16(kpa))

	// A successful apply always leaves the controller active; error
	// mode here means the command was rejected.
	st := ctrl.Status()
	if st.Mode == brake.ModeError {
		err := fmt.Errorf("apply rejected: %s", rec.LastFault())
		c.IndentedJSON(http.StatusConflict, err.Error())
		_ = c.AbortWithError(http.StatusConflict, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"targetKPa":  kpa,
		"appliedKPa": st.Pressure,
	}).Info("brake applied")
	c.IndentedJSON(http.StatusCreated, st)
}

func postRelease(c *gin.Context) {
	ctrl.Release()
	logrus.Info("brake released")
	c.IndentedJSON(http.StatusCreated, ctrl.Status())
}

func putTimingOffset(c *gin.Context) {
	offset, ok := bindUint16(c)
	if !ok {
		return
	}
	ctrl.UpdateTiming(offset)
	logrus.Infof("set working timing offset to %d", offset)
	c.IndentedJSON(http.StatusCreated, "ok")
}

func getCalibration(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"workingOffset": ctrl.TimingOffset(),
		"storedOffset":  cal.Load(),
		"signature":     cal.CurrentSignature(),
	})
}

func putCalibration(c *gin.Context) {
	offset, ok := bindUint16(c)
	if !ok {
		return
	}
	if err := ctrl.StoreCalibration(offset); err != nil {
		// Calibration durability is gone; this is not retried.
		logrus.Errorf("calibration persist failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	logrus.Infof("stored calibration offset %d", offset)
	c.IndentedJSON(http.StatusCreated, "ok")
}

func postDiagnostics(c *gin.Context) {
	ctrl.RunDiagnostics()
	c.IndentedJSON(http.StatusOK, ctrl.Status())
}

func postDiagnosticsReset(c *gin.Context) {
	rec.ResetAll()
	logrus.Info("fault recorder reset")
	c.IndentedJSON(http.StatusCreated, "ok")
}

func getFault(c *gin.Context) {
	fault := rec.LastFault()
	c.IndentedJSON(http.StatusOK, gin.H{
		"code": uint8(fault),
		"name": fault.String(),
	})
}

func deleteFault(c *gin.Context) {
	var code int
	if err := c.BindJSON(&code); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	rec.Clear(diag.Code(code))
	c.IndentedJSON(http.StatusOK, gin.H{
		"code": uint8(rec.LastFault()),
		"name": rec.LastFault().String(),
	})
}

func putTemperature(c *gin.Context) {
	celsius, ok := bindUint16(c)
	if !ok {
		return
	}
	ctrl.SetTemperature(celsius)
	c.IndentedJSON(http.StatusCreated, "ok")
}

func postInterlockDisengage(c *gin.Context) {
	ctrl.DisengageInterlock()
	c.IndentedJSON(http.StatusCreated, "ok")
}

func postInit(c *gin.Context) {
	bootstrap(conf)
	logrus.Info("controller re-initialized")
	c.IndentedJSON(http.StatusCreated, ctrl.Status())
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

// bindUint16 reads a bare JSON integer body constrained to uint16.
func bindUint16(c *gin.Context) (uint16, bool) {
	var v int
	if err := c.BindJSON(&v); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return 0, false
	}
	if v < 0 || v > 0xFFFF {
		err := fmt.Errorf("value must be between 0 and 65535, got %d", v)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return 0, false
	}
	return uint16(v), true
}
