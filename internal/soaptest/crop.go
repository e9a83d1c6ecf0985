package soaptest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const cropNamespace = "http://crop.agriservices.com/"

// CropRecord is a row of the fake crop store.
type CropRecord struct {
	ID            int
	Name          string
	Type          string
	DiseaseStatus string
}

// CropServer fakes the JAX-WS crop service published at /crop.
type CropServer struct {
	*server

	mu     sync.Mutex
	crops  map[int]CropRecord
	nextID int
}

// NewCropServer starts a crop fake seeded with records. It is closed when
// the test ends.
func NewCropServer(t testing.TB, seed ...CropRecord) *CropServer {
	t.Helper()
	s := &CropServer{server: &server{}, crops: map[int]CropRecord{}, nextID: 1}
	for _, c := range seed {
		s.crops[c.ID] = c
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/crop", s.handle)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Crops returns the stored records ordered by id.
func (s *CropServer) Crops() []CropRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CropRecord, 0, len(s.crops))
	for _, c := range s.crops {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *CropServer) handle(w http.ResponseWriter, r *http.Request) {
	body, ok := s.intercept(w, r)
	if !ok {
		return
	}
	op, err := operation(body)
	if err != nil {
		writeFault(w, http.StatusInternalServerError, "S:Client", err.Error())
		return
	}
	if op.Name.Space != cropNamespace {
		writeFault(w, http.StatusInternalServerError, "S:Client", "Cannot find dispatch method for {"+op.Name.Space+"}"+op.Name.Local)
		return
	}
	if action := strings.Trim(r.Header.Get("SOAPAction"), `"`); action != "" && action != op.Name.Local {
		writeFault(w, http.StatusInternalServerError, "S:Client", "SOAPAction "+action+" does not match "+op.Name.Local)
		return
	}

	arg := func(i int) string {
		v, _ := op.Field("arg" + strconv.Itoa(i))
		return v
	}

	switch op.Name.Local {
	case "hello":
		s.reply(w, "hello", "<return>Hello World from Crop Service (SOAP)!</return>")
	case "listCrops":
		s.reply(w, "listCrops", "<return>"+esc(s.listBlock())+"</return>")
	case "getCrop":
		id, err := strconv.Atoi(arg(0))
		if err != nil {
			writeFault(w, http.StatusInternalServerError, "S:Client", "arg0: "+err.Error())
			return
		}
		s.mu.Lock()
		c, found := s.crops[id]
		s.mu.Unlock()
		if !found {
			s.reply(w, "getCrop", "")
			return
		}
		s.reply(w, "getCrop", fmt.Sprintf("<return><diseaseStatus>%s</diseaseStatus><id>%d</id><name>%s</name><type>%s</type></return>",
			esc(c.DiseaseStatus), c.ID, esc(c.Name), esc(c.Type)))
	case "createCrop":
		s.mu.Lock()
		c := CropRecord{ID: s.nextID, Name: arg(0), Type: arg(1), DiseaseStatus: arg(2)}
		s.crops[c.ID] = c
		s.nextID++
		s.mu.Unlock()
		s.reply(w, "createCrop", fmt.Sprintf("<return>Crop created with ID: %d</return>", c.ID))
	case "updateCrop":
		id, err := strconv.Atoi(arg(0))
		if err != nil {
			writeFault(w, http.StatusInternalServerError, "S:Client", "arg0: "+err.Error())
			return
		}
		s.mu.Lock()
		_, found := s.crops[id]
		if found {
			s.crops[id] = CropRecord{ID: id, Name: arg(1), Type: arg(2), DiseaseStatus: arg(3)}
		}
		s.mu.Unlock()
		s.reply(w, "updateCrop", "<return>"+outcome(found, "Crop updated", id)+"</return>")
	case "deleteCrop":
		id, err := strconv.Atoi(arg(0))
		if err != nil {
			writeFault(w, http.StatusInternalServerError, "S:Client", "arg0: "+err.Error())
			return
		}
		s.mu.Lock()
		_, found := s.crops[id]
		delete(s.crops, id)
		s.mu.Unlock()
		s.reply(w, "deleteCrop", "<return>"+outcome(found, "Crop deleted", id)+"</return>")
	default:
		writeFault(w, http.StatusInternalServerError, "S:Client", "Cannot find dispatch method for "+op.Name.Local)
	}
}

func (s *CropServer) listBlock() string {
	crops := s.Crops()
	if len(crops) == 0 {
		return "No crops found."
	}
	lines := make([]string, 0, len(crops)+1)
	lines = append(lines, "Crop list:")
	for _, c := range crops {
		lines = append(lines, fmt.Sprintf("ID: %d, Name: %s, Type: %s, Status: %s", c.ID, c.Name, c.Type, c.DiseaseStatus))
	}
	return strings.Join(lines, "\n")
}

func (s *CropServer) reply(w http.ResponseWriter, op, inner string) {
	writeEnvelope(w, http.StatusOK, "S", fmt.Sprintf(`<ns2:%[1]sResponse xmlns:ns2="%[2]s">%[3]s</ns2:%[1]sResponse>`, op, cropNamespace, inner))
}

func outcome(found bool, done string, id int) string {
	if found {
		return fmt.Sprintf("%s: %d", done, id)
	}
	return fmt.Sprintf("Crop not found: %d", id)
}
