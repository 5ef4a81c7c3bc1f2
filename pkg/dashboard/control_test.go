package dashboard

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/truck-tracker/pkg/dashboard/connection"
	"github.com/travigo/truck-tracker/pkg/dashboard/viewsync"
	"github.com/travigo/truck-tracker/pkg/fleet"
)

type fakeController struct {
	mutex     sync.Mutex
	filters   fleet.FilterState
	viewports []fleet.ViewportState
	updates   int
}

func (c *fakeController) CurrentFilters() fleet.FilterState {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.filters.Clone()
}

func (c *fakeController) SetFilters(filters fleet.FilterState) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.filters = filters
	c.updates++
}

func (c *fakeController) SetViewport(viewport fleet.ViewportState) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.viewports = append(c.viewports, viewport)
}

type fixedState connection.State

func (s fixedState) State() connection.State {
	return connection.State(s)
}

func newTestControlApp() (*fiber.App, *fakeController, *View) {
	controller := &fakeController{filters: fleet.DefaultFilterState()}
	view := NewView()

	return NewControlApp(controller, view, fixedState(connection.StateOpen)), controller, view
}

func doRequest(t *testing.T, app *fiber.App, method string, path string, body string) (int, map[string]interface{}) {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(request)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	return resp.StatusCode, decoded
}

func TestControlHealth(t *testing.T) {
	app, _, _ := newTestControlApp()

	status, body := doRequest(t, app, "GET", "/health", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "ok", body["status"])
}

func TestControlView(t *testing.T) {
	app, _, view := newTestControlApp()

	view.SetVehicleIDs([]string{"TRK1"})
	view.Clear()
	view.Add(fleet.VehicleFeature{ID: "TRK1", Coordinates: orb.Point{-0.12, 51.5}, Status: fleet.StatusMoving})
	view.UpdateKPIs(viewsync.KPIs{
		Server:   fleet.StatusCounts{Moving: 1, Total: 1},
		Filtered: fleet.StatusCounts{Moving: 1, Total: 1},
	})

	status, body := doRequest(t, app, "GET", "/dashboard/view", "")
	require.Equal(t, 200, status)

	assert.Equal(t, "open", body["connection"])
	assert.Equal(t, []interface{}{"TRK1"}, body["vehicle_ids"])

	features := body["features"].([]interface{})
	require.Len(t, features, 1)
	assert.Equal(t, "TRK1", features[0].(map[string]interface{})["id"])
	assert.Equal(t, []interface{}{-0.12, 51.5}, features[0].(map[string]interface{})["coordinates"])

	kpis := body["kpis"].(map[string]interface{})
	assert.Equal(t, float64(1), kpis["server"].(map[string]interface{})["moving"])

	filters := body["filters"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"moving": true, "idle": true, "stopped": true}, filters["statuses"])
}

func TestControlFiltersMergeWithCurrent(t *testing.T) {
	app, controller, _ := newTestControlApp()

	status, _ := doRequest(t, app, "PUT", "/dashboard/filters", `{"vehicles":"TRK1,TRK2"}`)
	assert.Equal(t, fiber.StatusAccepted, status)

	status, body := doRequest(t, app, "PUT", "/dashboard/filters", `{"statuses":{"idle":true},"dateFrom":"2024-05-01"}`)
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, "TRK1,TRK2", body["vehicles"])

	filters := controller.CurrentFilters()
	assert.Equal(t, 2, controller.updates)
	assert.Equal(t, "TRK1,TRK2", filters.VehicleQuery)
	assert.Equal(t, "2024-05-01", filters.DateFrom)
	assert.True(t, filters.Statuses.Equal(fleet.NewStatusSet(fleet.StatusIdle)))
}

func TestControlFiltersRejected(t *testing.T) {
	app, controller, _ := newTestControlApp()

	tests := map[string]string{
		"not json":       `vehicles=TRK1`,
		"unknown status": `{"statuses":{"parked":true}}`,
		"bad date":       `{"dateTo":"May 1st"}`,
	}

	for name, body := range tests {
		status, response := doRequest(t, app, "PUT", "/dashboard/filters", body)
		assert.Equal(t, fiber.StatusBadRequest, status, name)
		assert.NotEmpty(t, response["error"], name)
	}

	assert.Equal(t, 0, controller.updates)
}

func TestControlViewportFromQuery(t *testing.T) {
	app, controller, _ := newTestControlApp()

	status, body := doRequest(t, app, "PUT", "/dashboard/viewport?bounds=-1,50,1,52&zoom=8", "")
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, float64(8), body["zoom"])

	require.Len(t, controller.viewports, 1)
	assert.Equal(t, [4]float64{-1, 50, 1, 52}, fleet.BBoxFromBound(controller.viewports[0].Bounds))
	assert.Equal(t, 8, controller.viewports[0].Zoom)
}

func TestControlViewportFromBody(t *testing.T) {
	app, controller, _ := newTestControlApp()

	status, _ := doRequest(t, app, "PUT", "/dashboard/viewport", `{"bbox":[2,48,3,49],"zoom":11}`)
	assert.Equal(t, fiber.StatusAccepted, status)

	require.Len(t, controller.viewports, 1)
	assert.Equal(t, [4]float64{2, 48, 3, 49}, fleet.BBoxFromBound(controller.viewports[0].Bounds))
	assert.Equal(t, 11, controller.viewports[0].Zoom)
}

func TestControlViewportRejected(t *testing.T) {
	app, controller, _ := newTestControlApp()

	tests := map[string][2]string{
		"short bounds":  {"/dashboard/viewport?bounds=1,2,3", ""},
		"text bounds":   {"/dashboard/viewport?bounds=a,b,c,d", ""},
		"missing":       {"/dashboard/viewport", ""},
		"inverted body": {"/dashboard/viewport", `{"bbox":[0,10,1,5]}`},
	}

	for name, test := range tests {
		status, response := doRequest(t, app, "PUT", test[0], test[1])
		assert.Equal(t, fiber.StatusBadRequest, status, name)
		assert.NotEmpty(t, response["error"], name)
	}

	assert.Empty(t, controller.viewports)
}
