package sheetquiz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	testSheetID = "sheet-123"

	spreadsheetJSON = `{"spreadsheetId":"sheet-123","sheets":[
		{"properties":{"title":"Networking"}},
		{"properties":{"title":"_Settings"}}
	]}`

	valuesJSON = `{"range":"Networking!A1:F3","majorDimension":"ROWS","values":[
		["Question","Answer A","Answer B","Correct Answer"],
		["How many bits in a byte?",8,16,"A"],
		["Loopback address?","127.0.0.1","0.0.0.0","a"]
	]}`
)

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":%q}}`, code, message)
}

func newFakeSheetsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case path == "/v4/spreadsheets/"+testSheetID:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, spreadsheetJSON)
		case strings.HasPrefix(path, "/v4/spreadsheets/"+testSheetID+"/values/"):
			rng := strings.TrimPrefix(path, "/v4/spreadsheets/"+testSheetID+"/values/")
			if rng != "'Networking'" {
				writeAPIError(w, http.StatusBadRequest, "Unable to parse range: "+rng)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, valuesJSON)
		default:
			writeAPIError(w, http.StatusNotFound, "Requested entity was not found.")
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestSheetsReader(t *testing.T, srv *httptest.Server, sheetID string) *SheetsReader {
	t.Helper()
	reader, err := NewSheetsReader(context.Background(), sheetID, "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("new sheets reader: %v", err)
	}
	return reader
}

func TestSheetsReaderListsTabs(t *testing.T) {
	reader := newTestSheetsReader(t, newFakeSheetsServer(t), testSheetID)

	tabs, err := reader.Tabs(context.Background())
	if err != nil {
		t.Fatalf("tabs: %v", err)
	}
	if !reflect.DeepEqual(tabs, []string{"Networking", "_Settings"}) {
		t.Fatalf("unexpected tabs %v", tabs)
	}
}

func TestSheetsReaderLoadsExam(t *testing.T) {
	reader := newTestSheetsReader(t, newFakeSheetsServer(t), testSheetID)

	exam, err := NewTableSource(reader, nil).LoadExam(context.Background(), "Networking")
	if err != nil {
		t.Fatalf("load exam: %v", err)
	}
	if len(exam.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(exam.Questions))
	}
	if exam.Questions[0].Options["A"] != "8" {
		t.Fatalf("numeric cell not converted to text: %+v", exam.Questions[0].Options)
	}
	if exam.Questions[1].Correct != "A" {
		t.Fatalf("expected normalised letter, got %q", exam.Questions[1].Correct)
	}
}

func TestSheetsReaderMissingTab(t *testing.T) {
	reader := newTestSheetsReader(t, newFakeSheetsServer(t), testSheetID)

	_, err := NewTableSource(reader, nil).LoadExam(context.Background(), "Chemistry")
	if !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("expected exam not found, got %v", err)
	}
}

func TestSheetsReaderMissingSpreadsheet(t *testing.T) {
	reader := newTestSheetsReader(t, newFakeSheetsServer(t), "no-such-sheet")

	_, err := NewTableSource(reader, nil).ListExams(context.Background())
	if !IsRetrievalError(err) || !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("expected not found retrieval error, got %v", err)
	}
}

func TestClassifySheetsError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"quota", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "Quota exceeded for quota metric 'Read requests'"}, ErrQuotaExceeded},
		{"not found", &googleapi.Error{Code: http.StatusNotFound, Message: "Requested entity was not found."}, ErrExamNotFound},
		{"bad range", &googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: 'Nope'"}, ErrExamNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySheetsError(tt.err, "missing"); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	other := classifySheetsError(&googleapi.Error{Code: http.StatusForbidden, Message: "The caller does not have permission"}, "missing")
	if errors.Is(other, ErrExamNotFound) || errors.Is(other, ErrQuotaExceeded) {
		t.Fatalf("forbidden must not be classified, got %v", other)
	}

	plain := errors.New("dial tcp: connection refused")
	if got := classifySheetsError(plain, "missing"); !errors.Is(got, plain) {
		t.Fatalf("transport error lost: %v", got)
	}
}

func TestQuoteSheetName(t *testing.T) {
	if got := quoteSheetName("Bob's Exam"); got != "'Bob''s Exam'" {
		t.Fatalf("unexpected range %q", got)
	}
}
