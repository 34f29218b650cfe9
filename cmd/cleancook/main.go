package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sujalbistaa/cleancook/internal/calculator"
	"github.com/sujalbistaa/cleancook/internal/client"
	"github.com/sujalbistaa/cleancook/internal/geocode"
	"github.com/sujalbistaa/cleancook/internal/service"
	"github.com/sujalbistaa/cleancook/internal/ui"
	"github.com/sujalbistaa/cleancook/internal/vendors"
)

const usage = `Usage: cleancook <command> [flags]

Commands:
  feed        list stories (-fuel, -pages)
  post        share a story (-title, -content, -author, -location, -fuel, -image)
  like        like a story: like <id>
  forum       list discussions
  thread      show a discussion: thread <id>
  new-thread  start a discussion (-title, -content, -author)
  comment     reply to a discussion (-thread, -content, -author)
  stats       community statistics
  calc        savings calculator (-spend, -meals, -household, -current, -clean)
  map         clean fuel vendors (-search, -lat, -lng, -hide)

Environment:
  CLEANCOOK_API   API base URL (default http://localhost:3001/api)
  NOMINATIM_URL   geocoder base URL (default https://nominatim.openstreetmap.org)
`

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	api := client.New(os.Getenv("CLEANCOOK_API"), 30*time.Second)
	geo := geocode.New(os.Getenv("NOMINATIM_URL"), 10*time.Second)
	c := ui.NewController(api, geo)

	cmd, args := os.Args[1], os.Args[2:]
	if err := run(ctx, c, cmd, args); err != nil {
		log.Error(err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if c.Failed() {
		os.Exit(1)
	}
}

func run(ctx context.Context, c *ui.Controller, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	out := os.Stdout

	switch cmd {
	case "feed":
		fuel := fs.String("fuel", "", "only stories with this fuel type")
		pages := fs.Int("pages", 1, "number of pages to load")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.Feed.Filter = *fuel
		c.Start(ctx)
		for i := 1; i < *pages && c.Feed.HasMore() && !c.Failed(); i++ {
			c.LoadMore(ctx)
		}
		c.Render(out)

	case "post":
		title := fs.String("title", "", "story title")
		content := fs.String("content", "", "story text")
		author := fs.String("author", "", "your name")
		location := fs.String("location", "", "where you cook")
		fuel := fs.String("fuel", "", "fuel type: charcoal, LPG, electric or improved_biomass")
		image := fs.String("image", "", "path to an image to attach")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.PostStory(ctx, client.NewStory{
			Title: *title, Content: *content, AuthorName: *author,
			Location: *location, FuelType: *fuel, ImagePath: *image,
		})
		c.Render(out)

	case "like":
		id, err := idArg(fs, args)
		if err != nil {
			return err
		}
		c.Like(ctx, id)
		c.RenderToast(out)

	case "forum":
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.SwitchTab(ctx, ui.TabForum)
		c.Render(out)

	case "thread":
		id, err := idArg(fs, args)
		if err != nil {
			return err
		}
		c.OpenThread(ctx, id)
		c.Render(out)

	case "new-thread":
		title := fs.String("title", "", "discussion title")
		content := fs.String("content", "", "opening post")
		author := fs.String("author", "", "your name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.SwitchTab(ctx, ui.TabForum)
		c.CreateThread(ctx, service.ThreadInput{Title: *title, Content: *content, AuthorName: *author})
		c.Render(out)

	case "comment":
		thread := fs.Uint("thread", 0, "discussion id")
		content := fs.String("content", "", "comment text")
		author := fs.String("author", "", "your name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.OpenThread(ctx, *thread)
		if !c.Failed() {
			c.PostComment(ctx, service.CommentInput{Content: *content, AuthorName: *author})
		}
		c.Render(out)

	case "stats":
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.LoadForum(ctx)
		c.RenderStats(out)
		c.RenderToast(out)

	case "calc":
		spend := fs.Float64("spend", 0, "daily fuel spend in KES")
		meals := fs.Int("meals", 1, "meals cooked per day")
		household := fs.Int("household", 1, "people in the household")
		current := fs.String("current", "charcoal", "current fuel")
		clean := fs.String("clean", "LPG", "clean fuel to compare")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.SwitchTab(ctx, ui.TabCalculator)
		c.Calculate(calculator.Input{
			CurrentFuel: *current, CleanFuel: *clean,
			DailySpend: *spend, MealsPerDay: *meals, HouseholdSize: *household,
		})
		c.Render(out)

	case "map":
		search := fs.String("search", "", "place to search for")
		lat := fs.Float64("lat", 0, "your latitude")
		lng := fs.Float64("lng", 0, "your longitude")
		hide := fs.String("hide", "", "comma-separated vendor types to hide (lpg, electric, biomass)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c.SwitchTab(ctx, ui.TabMap)
		for _, t := range strings.Split(*hide, ",") {
			if t = strings.TrimSpace(t); t != "" {
				c.ToggleType(vendors.Type(t), false)
			}
		}
		switch {
		case *search != "":
			c.SearchLocation(ctx, *search)
		case *lat != 0 || *lng != 0:
			c.SetLocation(vendors.Point{Lat: *lat, Lng: *lng})
		}
		c.Render(out)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// idArg parses the single positional id of like and thread.
func idArg(fs *flag.FlagSet, args []string) (uint, error) {
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("%s expects exactly one id", fs.Name())
	}
	id, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", fs.Arg(0))
	}
	return uint(id), nil
}
