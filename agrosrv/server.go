// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosrv // import "sbinet.org/x/agrotech/agrosrv"

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sbinet.org/x/agrotech"
)

// Server is the HTTP monitoring surface: a status page with humidity
// and temperature plots per sensor, a JSON latest-reading endpoint and
// the Prometheus metrics endpoint. The latest-reading query itself
// stays an in-process call on Query; the server is only one of its
// consumers.
type Server struct {
	mux *http.ServeMux

	mu   sync.RWMutex
	db   agrotech.DB
	qry  *Query
	ids  []string
	mgrs map[string]*manager

	metrics *Metrics
	root    string
	tmpl    *template.Template
}

func NewServer(root string, db agrotech.DB, qry *Query, metrics *Metrics) (*Server, error) {
	srv := &Server{
		db:      db,
		qry:     qry,
		mux:     http.NewServeMux(),
		mgrs:    make(map[string]*manager),
		metrics: metrics,
		root:    root,
		tmpl:    template.Must(template.New("agrotech").Parse(page)),
	}

	root = strings.TrimRight(root, "/")
	srv.mux.HandleFunc(root+"/", srv.handleRoot)
	srv.mux.HandleFunc(root+"/favicon.ico", func(w http.ResponseWriter, r *http.Request) {})
	srv.mux.HandleFunc(root+"/api", srv.handleAPI)
	srv.mux.HandleFunc(root+"/plot-h", srv.handlePlotH)
	srv.mux.HandleFunc(root+"/plot-t", srv.handlePlotT)
	srv.mux.Handle(root+"/metrics", promhttp.Handler())

	err := srv.init()
	if err != nil {
		return nil, fmt.Errorf("could not initialize server: %w", err)
	}

	return srv, nil
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.mux.ServeHTTP(w, r)
}

// init seeds the per-sensor managers from the sensors already present
// in the store; sensors ingested later are picked up on demand.
func (srv *Server) init() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.refresh()
}

// refresh re-reads the sensors list and makes sure each sensor has a
// manager. Callers must hold srv.mu.
func (srv *Server) refresh() error {
	ids, err := srv.db.Sensors()
	if err != nil {
		return fmt.Errorf("could not retrieve sensor ids: %w", err)
	}
	srv.ids = ids

	for _, id := range srv.ids {
		if _, ok := srv.mgrs[id]; !ok {
			srv.mgrs[id] = newManager(id)
		}
	}

	return nil
}

// mgrFor resolves the manager for the sensor named in the request,
// defaulting to the first known sensor. Callers must hold srv.mu.
func (srv *Server) mgrFor(r *http.Request) (*manager, error) {
	id := r.Form.Get("sensor")
	if id == "" {
		if len(srv.ids) == 0 {
			return nil, fmt.Errorf("no sensor recorded yet")
		}
		id = srv.ids[0]
	}

	mgr, ok := srv.mgrs[id]
	if !ok {
		return nil, fmt.Errorf("no such sensor %q", id)
	}

	return mgr, nil
}

func (srv *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		fmt.Fprintf(w, "could not parse form: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	err = srv.refresh()
	if err != nil {
		err = fmt.Errorf("could not refresh sensors list: %w", err)
		fmt.Fprintf(w, "%+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx := struct {
		Root    string
		Sensors []string
		Sensor  string
		Status  string
		Refresh int
	}{
		Root:    srv.root,
		Sensors: srv.ids,
		Refresh: 10,
	}

	mgr, err := srv.mgrFor(r)
	switch {
	case err != nil && len(srv.ids) == 0:
		// empty store: render the bare page.
		ctx.Status = NoDataMessage
	case err != nil:
		err = fmt.Errorf("could not find sensor manager: %w", err)
		fmt.Fprintf(w, "%+v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		data, err := mgr.rows(srv.db)
		if err != nil {
			err = fmt.Errorf("could not read rows for sensor=%q from db: %w", mgr.id, err)
			fmt.Fprintf(w, "%+v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		err = mgr.plot(data)
		if err != nil {
			err = fmt.Errorf("could not create plots for sensor=%q: %w", mgr.id, err)
			fmt.Fprintf(w, "%+v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if n := len(data); n > 0 {
			mgr.last = data[n-1]
		}
		ctx.Sensor = mgr.id
		ctx.Status = mgr.last.String()
	}

	err = srv.tmpl.Execute(w, ctx)
	if err != nil {
		err = fmt.Errorf("could not display page for sensor=%q: %w", ctx.Sensor, err)
		log.Printf("error: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (srv *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		fmt.Fprintf(w, "could not parse form: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sensor := r.Form.Get("sensor")
	if sensor == "" {
		sensor = DemoSensor
	}

	res := srv.qry.LatestReading(sensor)
	srv.metrics.observeQuery(res)

	w.Header().Set("content-type", "application/json")
	err = json.NewEncoder(w).Encode(res)
	if err != nil {
		log.Printf("could not encode query result for sensor=%q: %+v", sensor, err)
	}
}

func (srv *Server) handlePlotH(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		fmt.Fprintf(w, "could not parse form: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	srv.mu.RLock()
	defer srv.mu.RUnlock()

	mgr, err := srv.mgrFor(r)
	if err != nil {
		err = fmt.Errorf("could not find sensor manager: %w", err)
		fmt.Fprintf(w, "%+v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("content-type", "image/png")
	w.Write(mgr.plots.H.Bytes())
}

func (srv *Server) handlePlotT(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		fmt.Fprintf(w, "could not parse form: %+v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	srv.mu.RLock()
	defer srv.mu.RUnlock()

	mgr, err := srv.mgrFor(r)
	if err != nil {
		err = fmt.Errorf("could not find sensor manager: %w", err)
		fmt.Fprintf(w, "%+v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("content-type", "image/png")
	w.Write(mgr.plots.T.Bytes())
}
