// Copyright ©2024 The agrotech Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agrosrv // import "sbinet.org/x/agrotech/agrosrv"

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"time"

	"git.sr.ht/~sbinet/epok"
	"go-hep.org/x/hep/hplot"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"sbinet.org/x/agrotech"
)

var tcnv epok.UTCUnixTimeConverter

// dateLayouts are the timestamp shapes accepted for plotting. Fecha is
// stored as an opaque string; readings whose fecha matches none of
// these layouts are simply left off the plots.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (mgr *manager) plot(data []agrotech.Reading) error {
	var (
		xs = make([]float64, 0, len(data))
		vs = make([]agrotech.Reading, 0, len(data))
	)
	for _, v := range data {
		t, ok := parseDate(v.Date)
		if !ok {
			continue
		}
		xs = append(xs, tcnv.FromTime(t))
		vs = append(vs, v)
	}

	var grp errgroup.Group
	grp.Go(func() error {
		err := mgr.plotH(xs, vs)
		if err != nil {
			return fmt.Errorf("could not create humidity plot: %w", err)
		}
		return nil
	})

	grp.Go(func() error {
		err := mgr.plotT(xs, vs)
		if err != nil {
			return fmt.Errorf("could not create temperature plot: %w", err)
		}
		return nil
	})

	err := grp.Wait()
	if err != nil {
		return fmt.Errorf("could not create plots: %w", err)
	}

	return nil
}

func (mgr *manager) plotH(xs []float64, data []agrotech.Reading) error {
	var (
		ys = make([]float64, 0, len(data))
	)

	for _, data := range data {
		ys = append(ys, data.Humidity)
	}

	c := color.NRGBA{G: 255, A: 255}
	return mgr.genPlot(&mgr.plots.H, xs, ys, "Humidity [%]", c)
}

func (mgr *manager) plotT(xs []float64, data []agrotech.Reading) error {
	var (
		ys = make([]float64, 0, len(data))
	)

	for _, data := range data {
		ys = append(ys, data.Temperature)
	}

	c := color.NRGBA{R: 255, A: 255}
	return mgr.genPlot(&mgr.plots.T, xs, ys, "T [°C]", c)
}

func (mgr *manager) genPlot(buf *bytes.Buffer, xs, ys []float64, label string, c color.NRGBA) error {

	buf.Reset()

	plt := hplot.New()
	plt.Title.Text = "Sensor: " + mgr.id
	plt.Y.Label.Text = label
	plt.X.Tick.Marker = epok.Ticks{
		Converter: tcnv,
		Format:    "2006-01-02\n15:04",
	}

	sca, err := hplot.NewScatter(hplot.ZipXY(xs, ys))
	if err != nil {
		return fmt.Errorf("could not create scatter plot: %w", err)
	}

	c1 := c
	c2 := c
	c2.A = 38

	sca.GlyphStyle.Color = c1
	sca.GlyphStyle.Radius = 2
	sca.GlyphStyle.Shape = draw.CircleGlyph{}

	lin, err := hplot.NewLine(hplot.ZipXY(xs, ys))
	if err != nil {
		return fmt.Errorf("could not create line plot: %w", err)
	}
	lin.LineStyle.Color = c1
	lin.FillColor = c2

	plt.Add(hplot.NewGrid(), lin, sca)

	const size = 20 * vg.Centimeter
	cnv := vgimg.PngCanvas{
		Canvas: vgimg.New(vg.Length(math.Phi)*size, size),
	}
	plt.Draw(draw.New(cnv))
	_, err = cnv.WriteTo(buf)
	if err != nil {
		return fmt.Errorf("could not render %q plot: %w", label, err)
	}

	return nil
}

const page = `
<html>
	<head>
		<title>Agrotech monitoring</title>
		<meta http-equiv="refresh" content="{{.Refresh}}">
	</head>

	<body>
{{- if .Sensors}}
		<h2>Sensors</h2>
		<ul>
{{- with $ctx := .}}
{{- range .Sensors}}
			<li><a href="{{$ctx.Root}}?sensor={{.}}">{{.}}</a></li>
{{- end}}
{{- end}}
		</ul>
{{- end}}
		<pre>
Sensor:      {{.Sensor}}
{{.Status}}
		</pre>
		<!-- Humidity -->
		<hr>
        <div class="row align-items-center justify-content-center">
		  <img src="{{.Root}}plot-h?sensor={{.Sensor}}"/>
        </div>

		<!-- Temperature -->
		<hr>
        <div class="row align-items-center justify-content-center">
		  <img src="{{.Root}}plot-t?sensor={{.Sensor}}"/>
        </div>
	</body>
</html>
`
