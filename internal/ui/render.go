package ui

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"

	"github.com/sujalbistaa/cleancook/internal/models"
	"github.com/sujalbistaa/cleancook/internal/vendors"
)

var (
	heading = color.New(color.FgGreen, color.Bold)
	muted   = color.New(color.FgHiBlack)
	accent  = color.New(color.FgYellow)
	okText  = color.New(color.FgGreen)
	errText = color.New(color.FgRed)

	vendorColors = map[vendors.Type]*color.Color{
		vendors.TypeLPG:      color.New(color.FgBlue),
		vendors.TypeElectric: color.New(color.FgMagenta),
		vendors.TypeBiomass:  color.New(color.FgGreen),
	}
)

// Render writes the active tab followed by the last toast.
func (c *Controller) Render(w io.Writer) {
	switch c.Tab {
	case TabFeed:
		c.renderFeed(w)
	case TabForum:
		if c.Forum.View == ForumDetail && c.Forum.Thread != nil {
			c.renderThread(w)
		} else {
			c.renderThreads(w)
		}
	case TabCalculator:
		c.renderCalculator(w)
	case TabMap:
		c.renderMap(w)
	}
	c.RenderToast(w)
}

func (c *Controller) RenderToast(w io.Writer) {
	if c.Toast == nil {
		return
	}
	if c.Toast.Error {
		errText.Fprintf(w, "✗ %s\n", c.Toast.Message)
		return
	}
	okText.Fprintf(w, "✓ %s\n", c.Toast.Message)
}

func (c *Controller) renderFeed(w io.Writer) {
	title := "Community stories"
	if c.Feed.Filter != "" {
		title += " (" + c.Feed.Filter + ")"
	}
	heading.Fprintln(w, title)

	if len(c.Feed.Stories) == 0 {
		muted.Fprintln(w, "No stories found.")
		return
	}
	for _, s := range c.Feed.Stories {
		renderStory(w, s)
	}
	if c.Feed.HasMore() {
		muted.Fprintf(w, "Page %d of %d, more available\n", c.Feed.Page, c.Feed.Pages)
	}
}

func renderStory(w io.Writer, s models.Story) {
	fmt.Fprintln(w)
	accent.Fprintf(w, "#%d %s\n", s.ID, s.Title)
	muted.Fprintf(w, "By %s\n", s.AuthorName)
	fmt.Fprintln(w, s.Content)

	var meta []string
	if s.FuelType != nil {
		meta = append(meta, *s.FuelType)
	}
	if s.Location != nil {
		meta = append(meta, *s.Location)
	}
	if !s.CreatedAt.IsZero() {
		meta = append(meta, s.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	meta = append(meta, fmt.Sprintf("Likes: %d", s.LikesCount))
	if s.ImageURL != nil {
		meta = append(meta, "image: "+*s.ImageURL)
	}
	muted.Fprintln(w, strings.Join(meta, " · "))
}

func replies(n int) string {
	if n == 1 {
		return "1 reply"
	}
	return fmt.Sprintf("%d replies", n)
}

func (c *Controller) renderThreads(w io.Writer) {
	heading.Fprintln(w, "Community forum")
	if st := c.Forum.Stats; st != nil {
		muted.Fprintf(w, "%d discussions · %d comments\n", st.TotalThreads, st.TotalComments)
	}

	if len(c.Forum.Threads) == 0 {
		muted.Fprintln(w, "No discussions yet")
		muted.Fprintln(w, "Be the first to start a conversation about clean cooking!")
		return
	}
	for _, t := range c.Forum.Threads {
		fmt.Fprintln(w)
		accent.Fprintf(w, "#%d %s", t.ID, t.Title)
		muted.Fprintf(w, "  (%s)\n", replies(t.RepliesCount))
		fmt.Fprintln(w, t.Content)
		muted.Fprintf(w, "by %s · %s\n", t.AuthorName, t.CreatedAt.Local().Format("Jan 2, 2006"))
	}
}

func (c *Controller) renderThread(w io.Writer) {
	t := c.Forum.Thread
	heading.Fprintln(w, t.Title)
	fmt.Fprintln(w, t.Content)
	muted.Fprintf(w, "by %s · %s\n", t.AuthorName, t.CreatedAt.Local().Format("January 2, 2006 15:04"))

	fmt.Fprintln(w)
	heading.Fprintf(w, "Comments (%d)\n", len(c.Forum.Comments))
	if len(c.Forum.Comments) == 0 {
		muted.Fprintln(w, "No comments yet")
		muted.Fprintln(w, "Be the first to share your thoughts!")
		return
	}
	for _, cm := range c.Forum.Comments {
		fmt.Fprintln(w, cm.Content)
		muted.Fprintf(w, "  %s · %s\n", cm.AuthorName, cm.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
}

func (c *Controller) renderCalculator(w io.Writer) {
	heading.Fprintln(w, "Savings calculator")
	r := c.Calculator
	if r == nil {
		muted.Fprintln(w, "Enter your current spend to see what you could save.")
		return
	}
	fmt.Fprintf(w, "Monthly savings: KES %.0f (%d%% less)\n", math.Round(r.MonthlySavings), r.MonthlyPercentage)
	fmt.Fprintf(w, "Yearly savings:  KES %.0f (%d%% less)\n", math.Round(r.YearlySavings), r.YearlyPercentage)
	fmt.Fprintf(w, "CO2 avoided:     %.0f kg\n", math.Round(r.CO2SavingsKg))
	fmt.Fprintf(w, "Time saved:      %.0f hours per week\n", math.Round(r.TimeSavingsHours))

	const barCells = 40
	fmt.Fprintf(w, "Current %s KES %.0f\n", errText.Sprint(strings.Repeat("█", barCells)), math.Round(r.MonthlyCurrent))
	fmt.Fprintf(w, "Clean   %s KES %.0f\n", okText.Sprint(strings.Repeat("█", barCells*r.CleanBarWidth/100)), math.Round(r.MonthlyClean))
}

func (c *Controller) renderMap(w io.Writer) {
	heading.Fprintln(w, "Clean fuel vendors")
	m := c.Map
	muted.Fprintf(w, "Center %.4f, %.4f · zoom %d\n", m.Center.Lat, m.Center.Lng, m.Zoom)

	var shown []string
	for _, t := range vendors.Types {
		if m.Filter[t] {
			shown = append(shown, string(t))
		}
	}
	muted.Fprintf(w, "Showing: %s\n", strings.Join(shown, ", "))

	listed := c.VisibleVendors()
	if len(listed) == 0 {
		muted.Fprintln(w, "No vendors found")
		muted.Fprintln(w, "Try adjusting your filters or search location.")
		return
	}
	for _, l := range listed {
		fmt.Fprintln(w)
		accent.Fprint(w, l.Name)
		vendorColors[l.Type].Fprintf(w, " [%s]\n", l.Type)
		fmt.Fprintf(w, "  %s · %s\n", l.Address, l.Phone)
		muted.Fprintf(w, "  %s · rating %.1f\n", l.DistanceText(), l.Rating)
	}
}

// RenderStats writes the community statistics loaded with the forum.
func (c *Controller) RenderStats(w io.Writer) {
	heading.Fprintln(w, "Community impact")
	st := c.Forum.Stats
	if st == nil {
		muted.Fprintln(w, "Statistics unavailable")
		return
	}
	fmt.Fprintf(w, "Stories:  %d\n", st.TotalStories)
	fmt.Fprintf(w, "Threads:  %d\n", st.TotalThreads)
	fmt.Fprintf(w, "Comments: %d\n", st.TotalComments)
	fmt.Fprintf(w, "Clean fuel adoption: %s\n", okText.Sprintf("%d%%", st.CleanFuelAdoptionPercentage))
	for _, fc := range st.FuelTypeDistribution {
		muted.Fprintf(w, "  %-17s %d\n", fc.FuelType, fc.Count)
	}
}
