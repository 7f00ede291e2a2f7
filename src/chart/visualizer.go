// Package chart renders the survey charts as PNG files.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"SurveyInsight/src/processor"
	"SurveyInsight/src/storage"
	"SurveyInsight/src/utils"

	"github.com/go-gota/gota/dataframe"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Chart file names, in the order CreateAll writes them.
const (
	BoxplotsFile    = "01_boxplots_outliers.png"
	CorrelationFile = "02_correlation_matrix.png"
	StatusFile      = "03_comparison_status.png"
	RankingFile     = "04_app_ranking.png"
	OSFile          = "05_comparison_os.png"
)

const (
	gridCols   = 3
	topOSApps  = 5
	groupWidth = 60.0 // points taken by one cluster of grouped bars
	dpi        = 150
)

// ErrSkipped marks a chart whose input is absent from the table.
var ErrSkipped = errors.New("chart skipped")

var (
	medianColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	meanColor   = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	boxFill     = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	rankColor   = color.RGBA{R: 68, G: 119, B: 170, A: 255}
	emptyCell   = color.Gray{Y: 225}
	dashes      = []vg.Length{vg.Points(4), vg.Points(3)}
)

// Visualizer draws charts from the clean table. It never modifies the table.
type Visualizer struct {
	df       dataframe.DataFrame
	analyzer *processor.Analyzer
	logger   *storage.Logger
}

// NewVisualizer returns a visualizer over df. logger may be nil.
func NewVisualizer(df dataframe.DataFrame, analyzer *processor.Analyzer, logger *storage.Logger) *Visualizer {
	return &Visualizer{df: df, analyzer: analyzer, logger: logger}
}

// CreateAll writes every chart into outDir and returns the paths written.
// A failing chart does not stop the others; the failures are joined into
// the returned error. Skipped charts are only logged.
func (v *Visualizer) CreateAll(outDir string, columns []string) ([]string, error) {
	charts := []struct {
		file string
		draw func(path string, columns []string) error
	}{
		{BoxplotsFile, v.Boxplots},
		{CorrelationFile, v.CorrelationHeatmap},
		{StatusFile, v.StatusComparison},
		{RankingFile, v.AppRanking},
		{OSFile, v.OSComparison},
	}

	var (
		written []string
		errs    []error
	)
	for _, c := range charts {
		path := filepath.Join(outDir, c.file)
		err := c.draw(path, columns)
		switch {
		case errors.Is(err, ErrSkipped):
			v.log(storage.INFO, err.Error(), zap.String("file", c.file))
		case err != nil:
			v.log(storage.ERROR, "chart failed", zap.String("file", c.file), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.file, err))
		default:
			v.log(storage.INFO, "chart saved", zap.String("path", path))
			written = append(written, path)
		}
	}
	return written, errors.Join(errs...)
}

// Boxplots draws one boxplot per app in a grid of three columns, each with
// dashed median and mean reference lines.
func (v *Visualizer) Boxplots(path string, columns []string) error {
	cols := utils.PresentColumns(v.df, columns)
	if len(cols) == 0 {
		return fmt.Errorf("%w: no app columns for boxplots", ErrSkipped)
	}

	rows := (len(cols) + gridCols - 1) / gridCols
	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, gridCols)
	}
	for i, col := range cols {
		p, err := v.boxplot(col)
		if err != nil {
			return fmt.Errorf("boxplot %s: %w", col, err)
		}
		plots[i/gridCols][i%gridCols] = p
	}

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(gridCols)*4.5*vg.Inch, vg.Length(rows)*4*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	tiles := draw.Tiles{
		Rows: rows, Cols: gridCols,
		PadX: vg.Millimeter * 6, PadY: vg.Millimeter * 6,
		PadTop: vg.Millimeter * 4, PadBottom: vg.Millimeter * 4,
		PadLeft: vg.Millimeter * 4, PadRight: vg.Millimeter * 4,
	}
	canvases := plot.Align(plots, tiles, draw.New(img))
	for r := range plots {
		for c, p := range plots[r] {
			if p != nil {
				p.Draw(canvases[r][c])
			}
		}
	}
	return savePNG(path, img)
}

func (v *Visualizer) boxplot(col string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = col
	p.Y.Label.Text = "Hours/day"
	p.NominalX(col)
	p.Add(plotter.NewGrid())

	values := present(utils.Floats(v.df.Col(col)))
	if len(values) == 0 {
		p.Title.Text = col + " (no data)"
		p.X.Min, p.X.Max = -0.5, 0.5
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	box, err := plotter.NewBoxPlot(vg.Points(40), 0, values)
	if err != nil {
		return nil, err
	}
	box.FillColor = boxFill
	p.Add(box)

	median := processor.Median(values)
	mean := processor.MeanOf(values)
	refs := []struct {
		label string
		y     float64
		color color.Color
	}{
		{fmt.Sprintf("Median: %.2f", median), median, medianColor},
		{fmt.Sprintf("Mean: %.2f", mean), mean, meanColor},
	}
	for _, ref := range refs {
		line, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: ref.y}, {X: 0.5, Y: ref.y}})
		if err != nil {
			return nil, err
		}
		line.Color = ref.color
		line.Width = vg.Points(1.5)
		line.Dashes = dashes
		p.Add(line)
		p.Legend.Add(ref.label, line)
	}
	p.Legend.Top = true
	return p, nil
}

// CorrelationHeatmap draws the strictly lower triangle of the correlation
// matrix on a blue-red scale over [-1, 1], each cell annotated.
func (v *Visualizer) CorrelationHeatmap(path string, columns []string) error {
	m := v.analyzer.Correlations(columns)
	n := len(m.Columns)
	if n < 2 {
		return fmt.Errorf("%w: fewer than two app columns for the correlation matrix", ErrSkipped)
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	p := plot.New()
	p.Title.Text = "Correlation matrix of app usage"

	var (
		centers plotter.XYs
		labels  []string
	)
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			r := m.Values[i][j]
			x, y := float64(j), float64(n-1-i)
			cell, err := plotter.NewPolygon(plotter.XYs{
				{X: x - 0.5, Y: y - 0.5}, {X: x + 0.5, Y: y - 0.5},
				{X: x + 0.5, Y: y + 0.5}, {X: x - 0.5, Y: y + 0.5},
			})
			if err != nil {
				return err
			}
			cell.LineStyle.Color = color.White
			cell.LineStyle.Width = vg.Points(1)
			cell.Color = emptyCell
			if !math.IsNaN(r) {
				c, err := cmap.At(math.Max(-1, math.Min(1, r)))
				if err != nil {
					return fmt.Errorf("color for %.2f: %w", r, err)
				}
				cell.Color = c
			}
			p.Add(cell)
			centers = append(centers, plotter.XY{X: x, Y: y})
			labels = append(labels, fmt.Sprintf("%.2f", r))
		}
	}

	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: centers, Labels: labels})
	if err != nil {
		return err
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = text.XCenter
		annotations.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(annotations)

	rowNames := make([]string, n)
	for i, c := range m.Columns {
		rowNames[n-1-i] = c
	}
	p.NominalX(m.Columns...)
	p.NominalY(rowNames...)
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(n)-0.5

	side := vg.Length(n)*1.2*vg.Inch + 2*vg.Inch
	return p.Save(side, side, path)
}

// StatusComparison draws mean hours per app for each status group.
func (v *Visualizer) StatusComparison(path string, columns []string) error {
	field := v.analyzer.Schema().StatusField
	if !v.analyzer.HasColumn(field) {
		return fmt.Errorf("%w: no %s column", ErrSkipped, field)
	}
	cols := utils.PresentColumns(v.df, columns)
	groups := sortedGroups(v.analyzer.GroupMeansBy(field, cols))
	return groupedBars(path, "Mean usage by academic status", cols, groups)
}

// OSComparison draws mean hours per operating system for the five most
// used apps.
func (v *Visualizer) OSComparison(path string, columns []string) error {
	field := v.analyzer.Schema().OSField
	if !v.analyzer.HasColumn(field) {
		return fmt.Errorf("%w: no %s column", ErrSkipped, field)
	}
	var top []string
	for _, u := range v.analyzer.MeanUsage(columns) {
		if len(top) == topOSApps {
			break
		}
		top = append(top, u.App)
	}
	groups := sortedGroups(v.analyzer.GroupMeansBy(field, top))
	return groupedBars(path, "Mean usage of the top apps by operating system", top, groups)
}

// AppRanking draws the apps as horizontal bars, most used on top.
func (v *Visualizer) AppRanking(path string, columns []string) error {
	usage := v.analyzer.MeanUsage(columns)
	n := len(usage)
	if n == 0 {
		return fmt.Errorf("%w: no app columns for the ranking", ErrSkipped)
	}

	values := make(plotter.Values, n)
	names := make([]string, n)
	ends := make(plotter.XYs, n)
	labels := make([]string, n)
	for i, u := range usage {
		k := n - 1 - i
		mean := u.Mean
		labels[k] = fmt.Sprintf("%.2fh", mean)
		if math.IsNaN(mean) {
			mean = 0
			labels[k] = "n/a"
		}
		values[k] = mean
		names[k] = u.App
		ends[k] = plotter.XY{X: mean, Y: float64(k)}
	}

	p := plot.New()
	p.Title.Text = "Ranking of apps by mean daily usage"
	p.X.Label.Text = "Mean hours/day"
	p.Add(plotter.NewGrid())

	bars, err := plotter.NewBarChart(values, vg.Points(22))
	if err != nil {
		return err
	}
	bars.Horizontal = true
	bars.Color = rankColor
	bars.LineStyle.Width = 0
	p.Add(bars)

	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: ends, Labels: labels})
	if err != nil {
		return err
	}
	annotations.Offset = vg.Point{X: vg.Points(4)}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(annotations)

	p.NominalY(names...)
	p.X.Min = 0
	p.X.Max *= 1.15
	return p.Save(8*vg.Inch, vg.Length(n)*0.6*vg.Inch+1.5*vg.Inch, path)
}

// groupedBars draws one cluster of bars per app, one bar per group, each
// bar labelled with its value.
func groupedBars(path, title string, apps []string, groups []processor.GroupMeans) error {
	if len(apps) == 0 || len(groups) == 0 {
		return fmt.Errorf("%w: nothing to compare for %q", ErrSkipped, title)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Mean hours/day"
	p.Add(plotter.NewGrid())

	width := vg.Points(groupWidth / float64(len(groups)))
	colors := qualitative(len(groups))
	for k, g := range groups {
		values := make(plotter.Values, len(apps))
		tops := make(plotter.XYs, len(apps))
		labels := make([]string, len(apps))
		for i, app := range apps {
			mean := g.Means[app]
			labels[i] = fmt.Sprintf("%.2f", mean)
			if math.IsNaN(mean) {
				mean = 0
				labels[i] = ""
			}
			values[i] = mean
			tops[i] = plotter.XY{X: float64(i), Y: mean}
		}

		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return fmt.Errorf("bars for %s: %w", g.Group, err)
		}
		bars.Color = colors[k%len(colors)]
		bars.LineStyle.Width = 0
		bars.Offset = width * vg.Length(float64(k)-float64(len(groups)-1)/2)
		p.Add(bars)
		p.Legend.Add(g.Group, bars)

		annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: tops, Labels: labels})
		if err != nil {
			return err
		}
		annotations.Offset = vg.Point{X: bars.Offset, Y: vg.Points(2)}
		for i := range annotations.TextStyle {
			annotations.TextStyle[i].XAlign = text.XCenter
			annotations.TextStyle[i].Font.Size = vg.Points(7)
		}
		p.Add(annotations)
	}

	p.NominalX(apps...)
	p.Y.Min = 0
	p.Y.Max *= 1.1
	p.Legend.Top = true
	return p.Save(vg.Length(len(apps))*1.3*vg.Inch+2*vg.Inch, 6*vg.Inch, path)
}

func sortedGroups(groups []processor.GroupMeans) []processor.GroupMeans {
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Group < groups[j].Group })
	return groups
}

func qualitative(n int) []color.Color {
	k := max(3, min(n, 8))
	p, err := brewer.GetPalette(brewer.TypeQualitative, "Set2", k)
	if err != nil {
		return []color.Color{rankColor}
	}
	return p.Colors()
}

func present(x []float64) plotter.Values {
	out := make(plotter.Values, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func savePNG(path string, c *vgimg.Canvas) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = vgimg.PngCanvas{Canvas: c}.WriteTo(f)
	return err
}

func (v *Visualizer) log(level storage.LogLevel, msg string, fields ...zap.Field) {
	if v.logger == nil {
		return
	}
	v.logger.Log(level, msg, fields...)
}
