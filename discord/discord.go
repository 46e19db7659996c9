package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tnicklin/nephalem/battlenet"
	"github.com/tnicklin/nephalem/clock"
	"github.com/tnicklin/nephalem/logger"
	"github.com/tnicklin/nephalem/models"
	"github.com/tnicklin/nephalem/store"
	"github.com/tnicklin/nephalem/tracker"
)

var _ Discord = (*DefaultDiscord)(nil)

const (
	commandPrefix  = "!"
	adminRoleName  = "bot-admin"
	commandTimeout = 30 * time.Second
)

const (
	usageCareer  = "Usage: `!career <BattleTag>`\nExample: `!career Name#1234`"
	usageHero    = "Usage: `!hero <BattleTag> <hero id>`\nExample: `!hero Name#1234 11223344`\nHero ids are listed by `!career`."
	usageTrack   = "Usage: `!track <BattleTag>`"
	usageUntrack = "Usage: `!untrack <BattleTag>`"
	adminOnly    = "This command requires the `bot-admin` role."
	lookupFailed = "Battle.net lookup failed. Try again in a moment."
)

type DefaultDiscord struct {
	session       *discordgo.Session
	guildID       string
	listenChannel string
	reportChannel string
	client        battlenet.Client
	store         store.Store
	logger        logger.Logger
	clock         clock.Clock
	send          func(channelID, content string) error
	removeHandler func()
}

type Params struct {
	Config Config
	Client battlenet.Client
	Store  store.Store
	Logger logger.Logger
	Clock  clock.Clock
}

func New(p Params) (*DefaultDiscord, error) {
	cfg := p.Config

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System()
	}

	reportChannel := cfg.ReportChannel
	if reportChannel == "" {
		reportChannel = cfg.ListenChannel
	}

	d := &DefaultDiscord{
		session:       session,
		guildID:       cfg.GuildID,
		listenChannel: cfg.ListenChannel,
		reportChannel: reportChannel,
		client:        p.Client,
		store:         p.Store,
		logger:        log,
		clock:         clk,
	}
	d.send = func(channelID, content string) error {
		_, err := d.session.ChannelMessageSend(channelID, content)
		return err
	}
	return d, nil
}

func (c *DefaultDiscord) Start(_ context.Context) error {
	if c.client == nil {
		return errors.New("discord: battlenet client is required")
	}
	c.session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}

	c.removeHandler = c.session.AddHandler(c.handleMessage)
	c.logger.InfoW("discord: connected", "guild_id", c.guildID, "listen_channel", c.listenChannel)
	return nil
}

func (c *DefaultDiscord) Stop() error {
	if c.removeHandler != nil {
		c.removeHandler()
		c.removeHandler = nil
	}
	return c.session.Close()
}

// NotifyEvents posts tracker events to the report channel. It satisfies tracker.NotifyFunc.
func (c *DefaultDiscord) NotifyEvents(_ context.Context, events []tracker.Event) {
	if c.reportChannel == "" || len(events) == 0 {
		return
	}

	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, formatEvent(e))
	}
	if err := c.WriteMessage(c.reportChannel, strings.Join(lines, "\n")); err != nil {
		c.logger.ErrorW("discord: failed to post tracker events", "count", len(events), "error", err)
	}
}

func (c *DefaultDiscord) WriteMessage(channelID, msg string) error {
	if c.send == nil {
		return errors.New("discord session is nil")
	}
	for _, chunk := range chunkMessage(msg) {
		if err := c.send(channelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// invocation is one parsed command.
type invocation struct {
	Command string
	Args    []string
	Author  string
	// IsAdmin is evaluated only by commands that need it.
	IsAdmin func() bool
}

func parseCommand(content string) (string, []string, bool) {
	if !strings.HasPrefix(content, commandPrefix) {
		return "", nil, false
	}
	parts := strings.Fields(strings.TrimPrefix(content, commandPrefix))
	if len(parts) == 0 {
		return "", nil, false
	}
	return strings.ToLower(parts[0]), parts[1:], true
}

func (c *DefaultDiscord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	// Only respond in the configured listen channel
	if c.listenChannel != "" && m.ChannelID != c.listenChannel {
		return
	}

	cmd, args, ok := parseCommand(m.Content)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	response := c.dispatch(ctx, invocation{
		Command: cmd,
		Args:    args,
		Author:  m.Author.Username,
		IsAdmin: func() bool { return c.hasAdminRole(s, m) },
	})
	if response == "" {
		return
	}

	for _, chunk := range chunkMessage(response) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			c.logger.ErrorW("discord: failed to send response", "command", cmd, "error", err)
			return
		}
	}
}

func (c *DefaultDiscord) dispatch(ctx context.Context, inv invocation) string {
	switch inv.Command {
	case "career":
		return c.cmdCareer(ctx, inv.Args)
	case "hero":
		return c.cmdHero(ctx, inv.Args)
	case "region":
		return c.cmdRegion(inv)
	case "track":
		return c.cmdTrack(ctx, inv)
	case "untrack":
		return c.cmdUntrack(ctx, inv)
	case "tracked":
		return c.cmdTracked(ctx)
	case "help":
		return c.cmdHelp()
	}
	return ""
}

// cmdCareer handles the !career command
// Usage: !career <BattleTag>
func (c *DefaultDiscord) cmdCareer(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return usageCareer
	}
	tag := models.BattleTag(args[0])

	career, err := c.client.GetCareerByBattleTag(ctx, tag)
	if err != nil {
		return c.lookupFailure("career", tag, err, usageCareer)
	}
	return formatCareer(career, c.clock.Now())
}

// cmdHero handles the !hero command
// Usage: !hero <BattleTag> <id>
func (c *DefaultDiscord) cmdHero(ctx context.Context, args []string) string {
	if len(args) != 2 {
		return usageHero
	}
	tag := models.BattleTag(args[0])
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return usageHero
	}

	hero, err := c.client.GetHeroByID(ctx, tag, id)
	if err != nil {
		return c.lookupFailure("hero", tag, err, usageHero)
	}
	return formatHero(tag, hero)
}

// cmdRegion shows the current region, or changes it for admins.
func (c *DefaultDiscord) cmdRegion(inv invocation) string {
	if len(inv.Args) == 0 {
		return fmt.Sprintf("Current region: **%s**", c.client.Region())
	}
	if !inv.IsAdmin() {
		return adminOnly
	}

	region := strings.ToLower(inv.Args[0])
	previous := c.client.Region()
	c.client.SetRegion(region)
	c.logger.InfoW("discord: region changed", "from", previous, "to", region, "by", inv.Author)
	return fmt.Sprintf("Region changed from **%s** to **%s**.", previous, region)
}

func (c *DefaultDiscord) cmdTrack(ctx context.Context, inv invocation) string {
	if !inv.IsAdmin() {
		return adminOnly
	}
	if c.store == nil {
		return "Tracking is not configured."
	}
	if len(inv.Args) != 1 {
		return usageTrack
	}
	tag := models.BattleTag(inv.Args[0])

	career, err := c.client.GetCareerByBattleTag(ctx, tag)
	if err != nil {
		return c.lookupFailure("track", tag, err, usageTrack)
	}

	err = c.store.TrackBattleTag(ctx, store.TrackedBattleTag{BattleTag: tag, AddedBy: inv.Author})
	switch {
	case errors.Is(err, store.ErrAlreadyTracked):
		return fmt.Sprintf("**%s** is already tracked.", tag.Display())
	case err != nil:
		c.logger.ErrorW("discord: track failed", "battle_tag", tag, "error", err)
		return "Failed to track battle tag."
	}
	return fmt.Sprintf("Tracking **%s** (%d heroes). Changes will be posted as they happen.", tag.Display(), len(career.Heroes))
}

func (c *DefaultDiscord) cmdUntrack(ctx context.Context, inv invocation) string {
	if !inv.IsAdmin() {
		return adminOnly
	}
	if c.store == nil {
		return "Tracking is not configured."
	}
	if len(inv.Args) != 1 {
		return usageUntrack
	}
	tag := models.BattleTag(inv.Args[0])

	err := c.store.UntrackBattleTag(ctx, tag)
	switch {
	case errors.Is(err, store.ErrNotTracked):
		return fmt.Sprintf("**%s** is not tracked.", tag.Display())
	case err != nil:
		c.logger.ErrorW("discord: untrack failed", "battle_tag", tag, "error", err)
		return "Failed to untrack battle tag."
	}
	return fmt.Sprintf("Stopped tracking **%s**.", tag.Display())
}

func (c *DefaultDiscord) cmdTracked(ctx context.Context) string {
	if c.store == nil {
		return "Tracking is not configured."
	}

	tracked, err := c.store.ListTrackedBattleTags(ctx)
	if err != nil {
		c.logger.ErrorW("discord: list tracked failed", "error", err)
		return "Failed to list tracked battle tags."
	}

	lines := make([]trackedLine, 0, len(tracked))
	for _, t := range tracked {
		heroes, err := c.store.ListHeroSnapshots(ctx, t.BattleTag)
		if err != nil {
			c.logger.WarnW("discord: list snapshots failed", "battle_tag", t.BattleTag, "error", err)
		}
		lines = append(lines, trackedLine{BattleTag: t.BattleTag, Heroes: len(heroes), RefreshedAt: t.RefreshedAt})
	}
	return formatTracked(lines, c.clock.Now())
}

func (c *DefaultDiscord) cmdHelp() string {
	return `**Available Commands:**
` + "```" + `
!career <BattleTag>       - Show a career and its heroes
!hero <BattleTag> <id>    - Show one hero
!region                   - Show the Battle.net region
!tracked                  - List tracked battle tags
!help                     - Show this help message
` + "```" + `
**Admin Commands** (requires bot-admin role):
` + "```" + `
!region <code>            - Switch region (us, eu, kr, tw)
!track <BattleTag>        - Post hero changes for a battle tag
!untrack <BattleTag>      - Stop tracking a battle tag
` + "```" + `
*Battle tags may be written Name#1234 or Name-1234.*`
}

// lookupFailure maps a lookup error to the reply shown in the channel.
func (c *DefaultDiscord) lookupFailure(command string, tag models.BattleTag, err error, usage string) string {
	switch {
	case errors.Is(err, battlenet.ErrNotFound):
		c.logger.InfoW("discord: profile not found", "command", command, "battle_tag", tag)
		return fmt.Sprintf("No profile found for **%s** in region **%s**.", tag.Display(), c.client.Region())
	case errors.Is(err, battlenet.ErrInvalidArgument):
		return usage
	}
	c.logger.ErrorW("discord: lookup failed", "command", command, "battle_tag", tag, "error", err)
	return lookupFailed
}

// hasAdminRole checks if the message author has the bot-admin role
func (c *DefaultDiscord) hasAdminRole(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if s == nil || m == nil || m.Member == nil {
		return false
	}

	roles, err := s.GuildRoles(m.GuildID)
	if err != nil {
		c.logger.WarnW("discord: failed to load guild roles", "guild_id", m.GuildID, "error", err)
		return false
	}

	var adminRoleID string
	for _, role := range roles {
		if strings.EqualFold(role.Name, adminRoleName) {
			adminRoleID = role.ID
			break
		}
	}

	if adminRoleID == "" {
		return false
	}

	for _, roleID := range m.Member.Roles {
		if roleID == adminRoleID {
			return true
		}
	}

	return false
}
