// Package ui drives the terminal client: it owns all view state and turns
// user actions into API calls and toasts.
package ui

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sujalbistaa/cleancook/internal/calculator"
	"github.com/sujalbistaa/cleancook/internal/client"
	"github.com/sujalbistaa/cleancook/internal/geocode"
	"github.com/sujalbistaa/cleancook/internal/models"
	"github.com/sujalbistaa/cleancook/internal/service"
	"github.com/sujalbistaa/cleancook/internal/vendors"
)

// API is the subset of the REST client the controller needs.
type API interface {
	ListStories(ctx context.Context, page, limit int, fuelType string) (*service.StoryPage, error)
	CreateStory(ctx context.Context, in client.NewStory) (*models.Story, error)
	LikeStory(ctx context.Context, id uint) (*models.Story, error)
	ListThreads(ctx context.Context) ([]models.Thread, error)
	CreateThread(ctx context.Context, in service.ThreadInput) (*models.Thread, error)
	ListComments(ctx context.Context, threadID uint) ([]models.Comment, error)
	CreateComment(ctx context.Context, threadID uint, in service.CommentInput) (*models.Comment, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

type Geocoder interface {
	Search(ctx context.Context, query string) (*geocode.Result, error)
}

type Tab string

const (
	TabFeed       Tab = "feed"
	TabForum      Tab = "forum"
	TabCalculator Tab = "calculator"
	TabMap        Tab = "map"
)

type ForumView int

const (
	ForumList ForumView = iota
	ForumDetail
)

const (
	defaultPageSize = 10

	defaultZoom = 12
	searchZoom  = 14
)

// Nairobi is the initial map center.
var Nairobi = vendors.Point{Lat: -1.2921, Lng: 36.8219}

type Toast struct {
	Message string
	Error   bool
}

type FeedState struct {
	Stories []models.Story
	Page    int
	Pages   int
	Filter  string
}

// HasMore reports whether another page can be fetched.
func (f FeedState) HasMore() bool { return f.Page < f.Pages }

type ForumState struct {
	View     ForumView
	ThreadID uint
	Threads  []models.Thread
	Thread   *models.Thread
	Comments []models.Comment
	Stats    *service.Stats
}

type MapState struct {
	Initialized  bool
	Center       vendors.Point
	Zoom         int
	UserLocation *vendors.Point
	Vendors      []vendors.Vendor
	Filter       vendors.Filter
}

// Controller holds the client state. It is not safe for concurrent use.
type Controller struct {
	api      API
	geo      Geocoder
	pageSize int

	Tab        Tab
	Feed       FeedState
	Forum      ForumState
	Map        MapState
	Calculator *calculator.Result
	Toast      *Toast
}

func NewController(api API, geo Geocoder) *Controller {
	return &Controller{
		api:      api,
		geo:      geo,
		pageSize: defaultPageSize,
		Tab:      TabFeed,
	}
}

func (c *Controller) success(msg string) { c.Toast = &Toast{Message: msg} }
func (c *Controller) failure(msg string) { c.Toast = &Toast{Message: msg, Error: true} }

// Failed reports whether the last action ended with an error toast.
func (c *Controller) Failed() bool { return c.Toast != nil && c.Toast.Error }

// Start opens the feed tab and loads the first page.
func (c *Controller) Start(ctx context.Context) {
	c.Tab = TabFeed
	c.LoadStories(ctx)
}

// SwitchTab activates tab and runs its load step.
func (c *Controller) SwitchTab(ctx context.Context, tab Tab) {
	c.Tab = tab
	switch tab {
	case TabForum:
		c.LoadForum(ctx)
	case TabMap:
		c.InitMap()
	}
}

// --- Feed ---

// LoadStories reloads the feed from page 1 with the current filter.
func (c *Controller) LoadStories(ctx context.Context) {
	page, err := c.api.ListStories(ctx, 1, c.pageSize, c.Feed.Filter)
	if err != nil {
		c.failure("Error loading stories: " + err.Error())
		return
	}
	c.Feed.Stories = page.Stories
	c.Feed.Page = page.Pagination.Page
	c.Feed.Pages = page.Pagination.Pages
}

// LoadMore appends the next page while one exists.
func (c *Controller) LoadMore(ctx context.Context) {
	if !c.Feed.HasMore() {
		return
	}
	page, err := c.api.ListStories(ctx, c.Feed.Page+1, c.pageSize, c.Feed.Filter)
	if err != nil {
		c.failure("Error loading stories: " + err.Error())
		return
	}
	c.Feed.Stories = append(c.Feed.Stories, page.Stories...)
	c.Feed.Page = page.Pagination.Page
	c.Feed.Pages = page.Pagination.Pages
}

// SetFilter reloads the feed for one fuel type. An empty filter shows all.
func (c *Controller) SetFilter(ctx context.Context, fuelType string) {
	c.Feed.Filter = fuelType
	c.LoadStories(ctx)
}

func (c *Controller) PostStory(ctx context.Context, in client.NewStory) {
	if _, err := c.api.CreateStory(ctx, in); err != nil {
		c.failure(err.Error())
		return
	}
	c.success("Story shared successfully!")
	c.LoadStories(ctx)
}

func (c *Controller) Like(ctx context.Context, id uint) {
	story, err := c.api.LikeStory(ctx, id)
	if err != nil {
		c.failure(err.Error())
		return
	}
	for i := range c.Feed.Stories {
		if c.Feed.Stories[i].ID == story.ID {
			c.Feed.Stories[i].LikesCount = story.LikesCount
		}
	}
	c.success("Story liked!")
}

// --- Forum ---

// LoadForum fetches threads and stats together. A failed stats call keeps
// the previous numbers.
func (c *Controller) LoadForum(ctx context.Context) {
	var (
		threads              []models.Thread
		stats                *service.Stats
		threadsErr, statsErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		threads, threadsErr = c.api.ListThreads(ctx)
		return nil
	})
	g.Go(func() error {
		stats, statsErr = c.api.Stats(ctx)
		return nil
	})
	_ = g.Wait()

	if threadsErr != nil {
		c.failure("Failed to load forum data")
		return
	}
	c.Forum.Threads = threads
	if statsErr == nil {
		c.Forum.Stats = stats
	}
}

// OpenThread shows one thread with its comments. The thread itself is
// looked up in the full listing.
func (c *Controller) OpenThread(ctx context.Context, id uint) {
	c.Tab = TabForum
	c.Forum.View = ForumDetail
	c.Forum.ThreadID = id

	var (
		threads  []models.Thread
		comments []models.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		threads, err = c.api.ListThreads(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = c.api.ListComments(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		c.ShowThreadList(ctx)
		c.failure("Failed to load discussion")
		return
	}

	var thread *models.Thread
	for i := range threads {
		if threads[i].ID == id {
			thread = &threads[i]
			break
		}
	}
	if thread == nil {
		c.ShowThreadList(ctx)
		c.failure("Thread not found")
		return
	}
	c.Forum.Threads = threads
	c.Forum.Thread = thread
	c.Forum.Comments = comments
}

// ShowThreadList leaves the detail view and refreshes the listing.
func (c *Controller) ShowThreadList(ctx context.Context) {
	c.Forum.View = ForumList
	c.Forum.ThreadID = 0
	c.Forum.Thread = nil
	c.Forum.Comments = nil
	c.LoadForum(ctx)
}

func (c *Controller) CreateThread(ctx context.Context, in service.ThreadInput) {
	if _, err := c.api.CreateThread(ctx, in); err != nil {
		c.failure(err.Error())
		return
	}
	c.success("Discussion started successfully!")
	c.LoadForum(ctx)
}

// PostComment replies to the open thread.
func (c *Controller) PostComment(ctx context.Context, in service.CommentInput) {
	if c.Forum.View != ForumDetail || c.Forum.ThreadID == 0 {
		c.failure("No thread selected")
		return
	}
	id := c.Forum.ThreadID
	if _, err := c.api.CreateComment(ctx, id, in); err != nil {
		c.failure(err.Error())
		return
	}
	c.success("Comment posted successfully!")

	if comments, err := c.api.ListComments(ctx, id); err == nil {
		c.Forum.Comments = comments
	}
	if stats, err := c.api.Stats(ctx); err == nil {
		c.Forum.Stats = stats
	}
}

// --- Calculator ---

func (c *Controller) Calculate(in calculator.Input) calculator.Result {
	r := calculator.Calculate(in)
	c.Calculator = &r
	return r
}

// --- Map ---

// InitMap loads the vendor directory on first activation only.
func (c *Controller) InitMap() {
	if c.Map.Initialized {
		return
	}
	all, err := vendors.Demo()
	if err != nil {
		c.failure("Failed to load map. Please try again.")
		return
	}
	c.Map = MapState{
		Initialized: true,
		Center:      Nairobi,
		Zoom:        defaultZoom,
		Vendors:     all,
		Filter:      vendors.AllTypes(),
	}
	c.success("Map loaded successfully!")
}

// SetLocation records the user's position and centers the map on it.
func (c *Controller) SetLocation(p vendors.Point) {
	c.InitMap()
	c.Map.UserLocation = &p
	c.Map.Center = p
	c.Map.Zoom = searchZoom
	c.success("Location found!")
}

// SearchLocation geocodes query and uses the match as the user's location.
func (c *Controller) SearchLocation(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		c.failure("Please enter a location to search")
		return
	}
	c.InitMap()

	res, err := c.geo.Search(ctx, query)
	switch {
	case errors.Is(err, geocode.ErrNoResults):
		c.failure("Location not found. Try a different search term.")
		return
	case err != nil:
		c.failure("Failed to search location. Please try again.")
		return
	}

	p := vendors.Point{Lat: res.Lat, Lng: res.Lng}
	c.Map.UserLocation = &p
	c.Map.Center = p
	c.Map.Zoom = searchZoom
	c.success("Found: " + res.DisplayName)
}

// ToggleType shows or hides one vendor type.
func (c *Controller) ToggleType(t vendors.Type, on bool) {
	c.InitMap()
	c.Map.Filter[t] = on
}

// VisibleVendors is the vendor list as displayed.
func (c *Controller) VisibleVendors() []vendors.Listing {
	return vendors.List(c.Map.Vendors, c.Map.Filter, c.Map.UserLocation)
}
