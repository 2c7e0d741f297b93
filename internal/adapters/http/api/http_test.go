package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/splits/internal/adapters/http/api"
	service "github.com/okian/splits/internal/app"
	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/domain/model"
	"github.com/okian/splits/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const cohortCSV = `Name,Swim,T1,Bike,T2,Run,Gun
Ada,0:10:00,0:01:00,0:30:00,0:01:00,0:18:00,1:00:00
Bo,0:00:00,0:01:00,0:30:00,0:01:00,0:18:00,1:00:00
`

type decodedResponse struct {
	Report model.Report `json:"report"`
	Table  struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	} `json:"table"`
}

func newMux(svc *service.Service, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestEstimateHandler(t *testing.T) {
	Convey("Given an API server backed by a service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When a CSV cohort is posted without parameters", func() {
			w := do(mux, http.MethodPost, "/estimate", "text/csv", []byte(cohortCSV))

			Convey("Then the JSON report and filled table come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp decodedResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Report.Estimated, ShouldEqual, 1)
				So(resp.Report.Rows, ShouldEqual, 2)
				So(resp.Table.Columns[1], ShouldEqual, "Swim")
				So(resp.Table.Rows[1][1], ShouldEqual, float64(600))
			})
		})

		Convey("When CSV output with clock rendering is requested", func() {
			w := do(mux, http.MethodPost, "/estimate?format=csv&render=clock", "text/csv", []byte(cohortCSV))

			Convey("Then the file is streamed with its report id", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Header().Get("X-Report-ID"), ShouldNotBeEmpty)
				So(w.Body.String(), ShouldContainSubstring, "Bo,0:10:00,0:01:00")
			})
		})

		Convey("When an XLSX cohort is posted", func() {
			tbl := model.Table{Columns: []string{"Swim", "Bike", "Gun"}, Rows: []model.Row{
				model.TextRow([]string{"Swim", "Bike", "Gun"}, []string{"0:20:00", "0:40:00", "1:00:00"}),
				model.TextRow([]string{"Swim", "Bike", "Gun"}, []string{"0:00:00", "0:00:00", "0:30:00"}),
			}}
			var xlsx bytes.Buffer
			So(sink.WriteXLSX(&xlsx, tbl, sink.RenderSeconds), ShouldBeNil)

			w := do(mux, http.MethodPost, "/estimate?segments=Swim,Bike&total=Gun",
				sink.FormatXLSX.ContentType(), xlsx.Bytes())

			Convey("Then it is read as a workbook", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp decodedResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Report.Estimated, ShouldEqual, 2)
				So(resp.Table.Rows[1][0], ShouldEqual, float64(600))
				So(resp.Table.Rows[1][1], ShouldEqual, float64(1200))
			})
		})

		Convey("When the query is invalid", func() {
			for _, target := range []string{
				"/estimate?format=yaml",
				"/estimate?render=minutes",
				"/estimate?lenient=maybe",
				"/estimate?segments=Swim,Swim",
			} {
				w := do(mux, http.MethodPost, target, "text/csv", []byte(cohortCSV))
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When a time is malformed", func() {
			bad := cohortCSV + "Cy,ten,0:01:00,0:30:00,0:01:00,0:18:00,1:00:00\n"
			w := do(mux, http.MethodPost, "/estimate", "text/csv", []byte(bad))
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			Convey("And lenient mode drops the row instead", func() {
				w := do(mux, http.MethodPost, "/estimate?lenient=true", "text/csv", []byte(bad))
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp decodedResponse
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Report.Rejected, ShouldHaveLength, 1)
				So(resp.Report.Rejected[0].Index, ShouldEqual, 2)
				So(resp.Table.Rows, ShouldHaveLength, 2)
			})
		})

		Convey("When a layout column is missing", func() {
			w := do(mux, http.MethodPost, "/estimate?segments=Swim,Kayak", "text/csv", []byte(cohortCSV))
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the cohort is degenerate", func() {
			zero := "Swim,T1,Bike,T2,Run,Gun\n0:00:00,0:00:00,0:00:00,0:00:00,0:00:00,0:00:00\n"
			w := do(mux, http.MethodPost, "/estimate", "text/csv", []byte(zero))
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
		})

		Convey("When recorded splits exceed the total", func() {
			over := strings.Replace(cohortCSV, "Bo,0:00:00,0:01:00,0:30:00", "Bo,0:00:00,0:01:00,0:55:00", 1)
			w := do(mux, http.MethodPost, "/estimate", "text/csv", []byte(over))
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
		})

		Convey("When the body is not a table", func() {
			w := do(mux, http.MethodPost, "/estimate", "text/csv", nil)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is too large", func() {
			small := newMux(svc, api.WithMaxBodyBytes(16))
			w := do(small, http.MethodPost, "/estimate", "text/csv", []byte(cohortCSV))
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("When the method is wrong", func() {
			w := do(mux, http.MethodGet, "/estimate", "", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestReportsHandler(t *testing.T) {
	Convey("Given a server that has processed one cohort", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		defer svc.Stop()
		mux := newMux(svc, api.WithMaxReportLimit(5))

		w := do(mux, http.MethodPost, "/estimate?format=csv", "text/csv", []byte(cohortCSV))
		So(w.Code, ShouldEqual, http.StatusOK)
		id := w.Header().Get("X-Report-ID")

		Convey("When listing reports", func() {
			w := do(mux, http.MethodGet, "/reports?limit=50", "", nil)

			Convey("Then the report is listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Reports []model.Report `json:"reports"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Reports, ShouldHaveLength, 1)
				So(resp.Reports[0].ID, ShouldEqual, id)
			})
		})

		Convey("When the limit is invalid", func() {
			So(do(mux, http.MethodGet, "/reports?limit=abc", "", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/reports?limit=0", "", nil).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When fetching by id", func() {
			w := do(mux, http.MethodGet, "/reports/"+id, "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			var got model.Report
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.Estimated, ShouldEqual, 1)
		})

		Convey("When fetching an unknown id", func() {
			So(do(mux, http.MethodGet, "/reports/nope", "", nil).Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/reports/a/b", "", nil).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given an API server", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		defer svc.Stop()
		mux := newMux(svc)

		Convey("Then /stats returns service statistics", func() {
			w := do(mux, http.MethodGet, "/stats", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, false)
			So(stats["totalKey"], ShouldEqual, "Gun")
		})

		Convey("Then /healthz exposes Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "splits_")
		})
	})
}
