package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"alwahis/pkg/api"
	"alwahis/pkg/logger"
	"alwahis/pkg/models"
	"alwahis/service"
)

const (
	maxListedRides = 20
	maxRoutes      = 50
	tokenTTL       = 12 * time.Hour
)

// Settings configures the admin bot.
type Settings struct {
	Token         string
	AdminID       int64
	AdminUsername string
	JWTSecret     string
	Location      *time.Location
}

type Bot struct {
	Bot *tele.Bot
	Svc service.IServiceManager
	Log logger.ILogger

	adminID       int64
	adminUsername string
	jwtSecret     string
	loc           *time.Location
}

var messages = map[string]string{
	"help": "🛠 Alwahis admin\n\n" +
		"/stats - totals\n" +
		"/routes [n] - most published routes\n" +
		"/rides <from> <to> <YYYY-MM-DD> - active rides on a day\n" +
		"/token - admin API token\n\n" +
		"Use _ for spaces in city names.",
	"denied":     "🚫 This bot is for administrators only.",
	"failed":     "⚠️ Something went wrong, try again later.",
	"no_rides":   "📭 No active rides for that day.",
	"no_routes":  "📭 No rides published yet.",
	"rides_hdr":  "🚗 %s ➡️ %s, %s\n",
	"routes_hdr": "🗺 Popular routes\n",
	"token":      "🔑 Bearer token (valid %s):\n%s",
	"token_off":  "🔒 JWT_SECRET is not set, the admin API is disabled.",
}

func New(s Settings, svc service.IServiceManager, log logger.ILogger) (*Bot, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:  s.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	bot := &Bot{
		Bot:           b,
		Svc:           svc,
		Log:           log,
		adminID:       s.AdminID,
		adminUsername: strings.TrimPrefix(s.AdminUsername, "@"),
		jwtSecret:     s.JWTSecret,
		loc:           s.Location,
	}
	if bot.loc == nil {
		bot.loc = time.UTC
	}
	bot.registerHandlers()
	return bot, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.Log.Info("🤖 admin bot started")
	go func() {
		<-ctx.Done()
		b.Bot.Stop()
	}()
	b.Bot.Start()
	return nil
}

func (b *Bot) registerHandlers() {
	b.Bot.Use(b.adminOnly)

	b.Bot.Handle("/start", b.handleHelp)
	b.Bot.Handle("/help", b.handleHelp)
	b.Bot.Handle("/stats", b.handleStats)
	b.Bot.Handle("/routes", b.handleRoutes)
	b.Bot.Handle("/rides", b.handleRides)
	b.Bot.Handle("/token", b.handleToken)
}

func (b *Bot) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !b.isAdmin(c.Sender()) {
			return c.Send(messages["denied"])
		}
		return next(c)
	}
}

func (b *Bot) isAdmin(u *tele.User) bool {
	if u == nil {
		return false
	}
	return (b.adminID != 0 && u.ID == b.adminID) ||
		(b.adminUsername != "" && strings.EqualFold(u.Username, b.adminUsername))
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send(messages["help"])
}

func (b *Bot) handleStats(c tele.Context) error {
	st, err := b.Svc.Admin().Counts(context.Background())
	if err != nil {
		return b.fail(c, "stats", err)
	}
	return c.Send(formatStats(st))
}

func (b *Bot) handleRoutes(c tele.Context) error {
	n, err := parseRoutesArgs(c.Args())
	if err != nil {
		return c.Send("⚠️ " + err.Error())
	}
	routes, err := b.Svc.Admin().PopularRoutes(context.Background(), n)
	if err != nil {
		return b.fail(c, "routes", err)
	}
	return c.Send(formatRoutes(routes))
}

func (b *Bot) handleRides(c tele.Context) error {
	filter, err := parseRidesArgs(c.Args(), b.loc)
	if err != nil {
		return c.Send("⚠️ " + err.Error())
	}

	var rides []*models.Ride
	for ride, err := range b.Svc.Ride().ListActive(context.Background(), filter) {
		if err != nil {
			return b.fail(c, "rides", err)
		}
		rides = append(rides, ride)
		if len(rides) == maxListedRides {
			break
		}
	}
	return c.Send(formatRides(filter, rides, b.loc))
}

func (b *Bot) handleToken(c tele.Context) error {
	if b.jwtSecret == "" {
		return c.Send(messages["token_off"])
	}
	token, err := api.GenerateAdminToken(b.jwtSecret, strconv.FormatInt(c.Sender().ID, 10), tokenTTL)
	if err != nil {
		return b.fail(c, "token", err)
	}
	return c.Send(fmt.Sprintf(messages["token"], tokenTTL, token))
}

func (b *Bot) fail(c tele.Context, cmd string, err error) error {
	b.Log.Error("admin bot command failed", logger.String("command", cmd), logger.Error(err))
	return c.Send(messages["failed"])
}

func parseRoutesArgs(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > maxRoutes {
		return 0, fmt.Errorf("usage: /routes [1-%d]", maxRoutes)
	}
	return n, nil
}

func parseRidesArgs(args []string, loc *time.Location) (service.RideListFilter, error) {
	if len(args) != 3 {
		return service.RideListFilter{}, errors.New("usage: /rides <from> <to> <YYYY-MM-DD>")
	}
	day, err := time.ParseInLocation(time.DateOnly, args[2], loc)
	if err != nil {
		return service.RideListFilter{}, fmt.Errorf("bad date %q, want YYYY-MM-DD", args[2])
	}
	return service.RideListFilter{
		DepartureCity:   cityArg(args[0]),
		DestinationCity: cityArg(args[1]),
		Date:            &day,
	}, nil
}

func cityArg(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
}

func formatStats(st *models.Stats) string {
	return fmt.Sprintf("📊 Statistics\n\nRides: %d (active %d)\nUsers: %d (drivers %d)\nRequests: %d",
		st.TotalRides, st.ActiveRides, st.TotalUsers, st.TotalDrivers, st.TotalRequests)
}

func formatRoutes(routes []models.RouteCount) string {
	if len(routes) == 0 {
		return messages["no_routes"]
	}
	var sb strings.Builder
	sb.WriteString(messages["routes_hdr"])
	for i, r := range routes {
		fmt.Fprintf(&sb, "\n%d. %s ➡️ %s: %d", i+1, r.DepartureCity, r.DestinationCity, r.RideCount)
	}
	return sb.String()
}

func formatRides(f service.RideListFilter, rides []*models.Ride, loc *time.Location) string {
	if len(rides) == 0 {
		return messages["no_rides"]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, messages["rides_hdr"], f.DepartureCity, f.DestinationCity, f.Date.Format(time.DateOnly))
	for _, r := range rides {
		fmt.Fprintf(&sb, "\n#%d %s %s, %d/%d seats, %d IQD",
			r.ID, r.DepartureTime.In(loc).Format("15:04"), r.CarType, r.AvailableSeats, r.TotalSeats, r.PricePerSeat)
	}
	return sb.String()
}
