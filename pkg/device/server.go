package device

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/gin-gonic/gin"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/klog/v2"

	"voltampero/pkg/apis"
	"voltampero/pkg/apis/response"
	"voltampero/pkg/generic"
	"voltampero/pkg/runtime"
	v1 "voltampero/pkg/v1"
)

func InstallHandler(group *gin.RouterGroup, mgr *Manager) {
	group.POST("/instruments", createInstrument(mgr))
	group.DELETE("/instruments/:id", deleteInstrument(mgr))
	group.PATCH("/instruments/:id", patchInstrumentById(mgr))
	group.PUT("/instruments/:id", updateInstrumentById(mgr))
	group.GET("/instruments", listInstruments(mgr))
	group.GET("/instruments/:id", getInstrumentById(mgr))
	group.PUT("/instruments/:id/status/:status", switchInstrumentStatusById(mgr))

	group.PUT("/instruments/:id/psu/voltage", setVoltage(mgr))
	group.PUT("/instruments/:id/psu/current", setCurrent(mgr))
	group.PUT("/instruments/:id/psu/output", setOutput(mgr))
	group.PUT("/instruments/:id/psu/ocp", setOcp(mgr))
	group.PUT("/instruments/:id/psu/ovp", setOvp(mgr))
	group.GET("/instruments/:id/psu/status", getPsuStatus(mgr))

	group.GET("/instruments/:id/dmm/reading", getDmmReading(mgr))
	group.GET("/instruments/:id/dmm/display", getDmmDisplay(mgr))
	group.GET("/instruments/:id/dmm/identification", getDmmIdentification(mgr))
	group.PUT("/instruments/:id/dmm/action", deliverDmmAction(mgr))

	group.POST("/instruments/:id/ramp/start", startRamp(mgr))
	group.PUT("/instruments/:id/ramp/pause", pauseRamp(mgr))
	group.PUT("/instruments/:id/ramp/resume", resumeRamp(mgr))
	group.PUT("/instruments/:id/ramp/stop", stopRamp(mgr))
	group.GET("/instruments/:id/ramp/state", getRampState(mgr))

	group.POST("/logging/start", startLogging(mgr))
	group.PUT("/logging/stop", stopLogging(mgr))
	group.POST("/logging/export", exportLog(mgr))
	group.PUT("/logging/clear", clearLog(mgr))
	group.GET("/logging/entries", listLogEntries(mgr))
}

func createInstrument(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			klog.V(2).InfoS("Failed to get request body", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}

		var target struct {
			InstrumentType string `json:"instrumentType"`
		}
		err = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&target)
		if err != nil {
			klog.V(2).InfoS("Failed to parse instrument type", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrRequestBody))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		newObject, ok := generic.InstrumentTypeMap[target.InstrumentType]
		if !ok {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrInstrumentTypeUnSupported(target.InstrumentType)))
			return
		}
		object := newObject()
		if err := c.ShouldBindJSON(object); err != nil {
			klog.V(2).InfoS("Failed to parse instrument", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		d, err := mgr.CreateInstrument(object)

		if err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(err))
			return
		}

		// TODO use different scheme
		c.Header(apis.ETag, fmt.Sprintf("%s", d.GetVersion()))
		c.Header(apis.Location, fmt.Sprintf("https://%s%s/%s", c.Request.Host, c.Request.RequestURI, d.GetID()))
		c.JSON(http.StatusCreated, d)
	}
}

func deleteInstrument(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		eTag := c.GetHeader(apis.IfMatch)
		if len(eTag) == 0 {
			c.Status(http.StatusPreconditionRequired)
			return
		}
		instrument, err := mgr.DeleteInstrument(id, eTag)
		if err != nil {
			if os.IsNotExist(err) {
				c.Status(http.StatusNotFound)
			} else if errors.Is(err, apis.ErrMismatch) {
				c.Status(http.StatusPreconditionFailed)
			} else {
				c.JSON(http.StatusBadRequest, response.NewMultiError(err))
			}
			return
		}
		c.JSON(http.StatusOK, instrument)
	}
}

func patchInstrumentById(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer c.Request.Body.Close()

		contentType := c.GetHeader("Content-Type")
		// Remove "; charset=" if included in header.
		if idx := strings.Index(contentType, ";"); idx > 0 {
			contentType = contentType[:idx]
		}

		if !patchTypes.Has(contentType) {
			c.Status(http.StatusUnsupportedMediaType)
			return
		}

		eTag := c.GetHeader(apis.IfMatch)
		if len(eTag) == 0 {
			c.Status(http.StatusPreconditionRequired)
			return
		}

		patchBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			klog.V(3).InfoS("Failed to read", "err", err)
			c.Status(http.StatusInternalServerError)
			return
		}

		id := c.Param("id")
		old, err := mgr.GetInstrumentById(id, true)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}

		versionedJS, err := json.Marshal(old)
		if err != nil {
			klog.V(3).InfoS("Failed to marshal", "err", err)
			c.Status(http.StatusInternalServerError)
			return
		}

		patchedJS, err := applyJSPatch(types.PatchType(contentType), patchBytes, versionedJS)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(err))
			return
		}

		newObj := generic.InstrumentTypeMap[old.GetInstrumentType()]()
		if err := json.NewDecoder(bytes.NewBuffer(patchedJS)).Decode(newObj); err != nil {
			klog.V(3).InfoS("Failed to decode", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}

		updated, err := mgr.UpdateInstrumentById(id, eTag, newObj)
		if err != nil {
			switch {
			case os.IsNotExist(err):
				c.Status(http.StatusNotFound)
			case errors.Is(err, apis.ErrMismatch):
				c.Status(http.StatusPreconditionFailed)
			default:
				if response.IsResponseError(err) {
					c.JSON(http.StatusBadRequest, response.NewMultiError(err))
				} else {
					c.Status(http.StatusInternalServerError)
				}
			}
			return
		}

		c.Header(apis.ETag, updated.GetVersion())
		c.JSON(http.StatusOK, updated)
	}
}

func updateInstrumentById(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer c.Request.Body.Close()

		eTag := c.GetHeader(apis.IfMatch)
		if len(eTag) == 0 {
			c.Status(http.StatusPreconditionRequired)
			return
		}

		id := c.Param("id")
		old, err := mgr.GetInstrumentById(id, true)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}

		newObj := generic.InstrumentTypeMap[old.GetInstrumentType()]()
		if err := json.NewDecoder(c.Request.Body).Decode(newObj); err != nil {
			klog.V(3).InfoS("Failed to decode", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}

		updated, err := mgr.UpdateInstrumentById(id, eTag, newObj)
		if err != nil {
			switch {
			case os.IsNotExist(err):
				c.Status(http.StatusNotFound)
			case errors.Is(err, apis.ErrMismatch):
				c.Status(http.StatusPreconditionFailed)
			default:
				if response.IsResponseError(err) {
					c.JSON(http.StatusBadRequest, response.NewMultiError(err))
				} else {
					c.Status(http.StatusInternalServerError)
				}
			}
			return
		}

		if updated != nil {
			c.Header(apis.ETag, updated.GetVersion())
		}
		c.JSON(http.StatusOK, updated)
	}
}

func listInstruments(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer c.Request.Body.Close()

		query := c.Request.URL.Query()
		exploded := false
		filter := runtime.InstrumentFilter{}
		if len(query) > 0 {
			v := query.Get(apis.Filter)
			if len(v) > 0 {
				if err := json.Unmarshal([]byte(v), &filter); err != nil {
					c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
					return
				}
			}
			exploded, _ = strconv.ParseBool(query.Get("exploded"))
		}
		ris, _ := mgr.ListInstruments(&filter, exploded)

		c.JSON(http.StatusOK, &runtime.ResponseModel{Instruments: ris})
	}
}

func getInstrumentById(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer c.Request.Body.Close()

		id := c.Param("id")
		query := c.Request.URL.Query()
		exploded := false
		if len(query) > 0 {
			exploded, _ = strconv.ParseBool(query.Get("exploded"))
		}
		ri, err := mgr.GetInstrumentById(id, exploded)
		if err != nil {
			if os.IsNotExist(err) {
				c.Status(http.StatusNotFound)
			} else {
				c.Status(http.StatusInternalServerError)
			}
			return
		}

		c.Header(apis.ETag, fmt.Sprintf("%s", ri.GetVersion()))
		c.JSON(http.StatusOK, ri)
	}
}

func switchInstrumentStatusById(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer c.Request.Body.Close()

		id := c.Param("id")
		status := c.Param("status")
		if err := mgr.SwitchInstrumentStatus(id, status); err != nil {
			if os.IsNotExist(err) {
				c.Status(http.StatusNotFound)
			} else {
				c.JSON(http.StatusBadRequest, response.NewMultiError(err))
			}
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func setVoltage(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.VoltageRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := mgr.SetVoltage(c.Param("id"), *request.Voltage); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func setCurrent(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.CurrentRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := mgr.SetCurrent(c.Param("id"), *request.Current); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func setOutput(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.SwitchRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := mgr.SetOutput(c.Param("id"), *request.On); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func setOcp(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.SwitchRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := mgr.SetOcp(c.Param("id"), *request.On); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func setOvp(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.SwitchRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := mgr.SetOvp(c.Param("id"), *request.On); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func getPsuStatus(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := mgr.PsuStatus(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func getDmmReading(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		reading, err := mgr.DmmReading(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		if reading == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, reading)
	}
}

func getDmmDisplay(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		display, err := mgr.DmmDisplay(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"display": display})
	}
}

func getDmmIdentification(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := mgr.DmmIdentification(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"identification": id})
	}
}

func deliverDmmAction(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.ActionRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := mgr.DeliverDmmAction(c.Param("id"), request.Action); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func startRamp(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.RampRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		state, err := mgr.StartRamp(c.Param("id"), &request)
		if err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.JSON(http.StatusCreated, state)
	}
}

func pauseRamp(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.PauseRamp(c.Param("id")); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func resumeRamp(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.ResumeRamp(c.Param("id")); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func stopRamp(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.StopRamp(c.Param("id")); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func getRampState(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := mgr.RampState(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

func startLogging(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.LoggingRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
				return
			}
		}
		if err := mgr.StartLogging(request.IntervalMs); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.Status(http.StatusCreated)
	}
}

func stopLogging(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		mgr.StopLogging()
		c.Status(http.StatusAccepted)
	}
}

func exportLog(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request v1.ExportRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := mgr.ExportLog(request.Path); err != nil {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": request.Path})
	}
}

func clearLog(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		mgr.ClearLog()
		c.Status(http.StatusAccepted)
	}
}

func listLogEntries(mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"active":  mgr.LoggingActive(),
			"entries": mgr.LogEntries(),
		})
	}
}

func applyJSPatch(patchType types.PatchType, patchBytes, versionedJS []byte) (patchedJS []byte, err error) {
	switch patchType {
	case types.JSONPatchType:
		patchObj, err := jsonpatch.DecodePatch(patchBytes)
		if err != nil {
			return nil, response.ErrMalformedJSON
		}
		if len(patchObj) > maxJSONPatchOperations {
			klog.V(3).InfoS("Too many json patch operations", "count", len(patchObj))
			return nil, response.ErrTooManyJsonPatchOperations(maxJSONPatchOperations)
		}
		patchedJS, err := patchObj.Apply(versionedJS)
		if err != nil {
			klog.V(3).InfoS("Failed to apply json patch", "err", err)
			return nil, response.ErrMalformedJSON
		}
		return patchedJS, nil
	case types.MergePatchType:
		patchedJS, err = jsonpatch.MergePatch(versionedJS, patchBytes)
		if err != nil {
			klog.V(3).InfoS("Failed to apply json merge patch", "err", err)
			return nil, response.ErrMalformedJSON
		}
		return patchedJS, err
	default:
		// only here as a safety net - gin filters content-type
		return nil, fmt.Errorf("unknown Content-Type header for patch: %v", patchType)
	}
}
