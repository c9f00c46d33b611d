// cmd/portal/commands.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scholarship-portal/internal/common/auth"
	"scholarship-portal/internal/common/config"
	"scholarship-portal/internal/common/database"
	commonhttp "scholarship-portal/internal/common/http"
	"scholarship-portal/internal/common/logger"
	"scholarship-portal/internal/common/observability"
	"scholarship-portal/internal/common/portal"
	"scholarship-portal/internal/form"
	"scholarship-portal/internal/review"
	"scholarship-portal/pkg/catalog"
)

// env is everything a command needs once configuration has been loaded.
type env struct {
	cfg     *config.Config
	log     logger.Logger
	client  *portal.Client
	catalog *catalog.Catalog
	redis   *database.RedisClient
}

func setup(configPath string) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFromFile(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	hc := commonhttp.NewClient(cfg.Backend.BaseURL, config.GetDuration(cfg.Backend.Timeout))
	client := portal.NewClient(hc, portal.Paths{
		Upload:         cfg.Backend.UploadPath,
		Applications:   cfg.Backend.ApplicationsPath,
		DownloadPrefix: cfg.Backend.DownloadPrefix,
	}, log)

	e := &env{cfg: cfg, log: log, client: client}

	if cfg.Catalog.Path != "" {
		cat, err := catalog.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			log.Warn("scholarship catalog unavailable", map[string]interface{}{"path": cfg.Catalog.Path, "error": err.Error()})
		} else {
			e.catalog = cat
		}
	}

	if cfg.Drafts.UsesRedisDrafts() {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, err
		}
		e.redis = rdb
	}
	return e, nil
}

func (e *env) close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
}

func (e *env) session(ctx context.Context) (auth.Session, error) {
	a := e.cfg.Auth
	if strings.EqualFold(a.Provider, "keycloak") {
		kc := auth.NewKeycloakSession(a.Keycloak.URL, a.Keycloak.Realm, a.Keycloak.ClientID, e.log)
		if err := kc.SignIn(ctx, a.Keycloak.Username, a.Keycloak.Password); err != nil {
			return nil, err
		}
		return kc, nil
	}

	s := auth.NewStaticSession(a.Static.Token, auth.Profile{
		UserID: a.Static.UserID,
		Name:   a.Static.Name,
		Email:  a.Static.Email,
	})
	s.SetLogoutHook(func() {
		e.log.Warn("session ended by backend, sign in again", nil)
	})
	return s, nil
}

func (e *env) redisSaver() *form.RedisDraftSaver {
	if e.redis == nil {
		return nil
	}
	return form.NewRedisDraftSaver(e.redis, time.Duration(e.cfg.Drafts.TTLHours)*time.Hour)
}

func (e *env) saver() form.DraftSaver {
	if s := e.redisSaver(); s != nil {
		return s
	}
	return form.NopDraftSaver{}
}

// loadRecord reads the draft file, or with resume set the draft saved for the
// signed-in user.
func (e *env) loadRecord(ctx context.Context, sess auth.Session, draftPath string, resume bool) (form.DraftRecord, error) {
	if !resume {
		return readDraft(draftPath)
	}

	saver := e.redisSaver()
	if saver == nil {
		return form.DraftRecord{}, errors.New("-resume needs drafts.store set to redis")
	}
	userID := sess.CurrentProfile().UserID
	rec, found, err := saver.LoadDraft(ctx, userID)
	if err != nil {
		return rec, err
	}
	if !found {
		return rec, fmt.Errorf("no saved draft for user %q", userID)
	}
	return rec, nil
}

// readDraft loads a draft file. Relative document paths resolve against the
// draft file's directory.
func readDraft(path string) (form.DraftRecord, error) {
	var rec form.DraftRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("read draft: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse draft %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for slot, ref := range rec.Documents {
		if ref != "" && !filepath.IsAbs(ref) {
			rec.Documents[slot] = filepath.Join(base, ref)
		}
	}
	return rec, nil
}

// loadController replays a draft file into a fresh controller and advances it
// to the academic step when the personal step is complete.
func loadController(e *env, sess auth.Session, rec form.DraftRecord, scholarshipID string, opts ...form.Option) (*form.Controller, error) {
	if scholarshipID == "" {
		scholarshipID = rec.ScholarshipID
	}
	opts = append(opts,
		form.WithRules(form.RulesFromConfig(e.cfg.Form)),
		form.WithCatalog(e.catalog),
		form.WithScholarship(scholarshipID),
		form.WithDraftSaver(e.saver()),
	)
	c := form.NewController(e.client, sess, e.log, opts...)

	actions, err := rec.Actions(form.OpenLocalFile)
	if err != nil {
		return nil, err
	}
	for _, a := range actions {
		if err := c.Dispatch(a); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func validateCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	draftPath := fs.String("draft", "", "Path to draft JSON file (required)")
	scholarshipID := fs.String("scholarship", "", "Scholarship id, overrides the draft's")
	resume := fs.Bool("resume", false, "Validate the draft saved for the signed-in user instead of -draft")
	_ = fs.Parse(args)

	if *draftPath == "" && !*resume {
		return errors.New("-draft is required")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Validation never calls the backend; a sign-in is only needed to find a saved draft.
	var sess auth.Session = auth.NewStaticSession("", auth.Profile{Name: e.cfg.Auth.Static.Name})
	if *resume {
		if sess, err = e.session(ctx); err != nil {
			return err
		}
	}
	rec, err := e.loadRecord(ctx, sess, *draftPath, *resume)
	if err != nil {
		return err
	}
	c, err := loadController(e, sess, rec, *scholarshipID)
	if err != nil {
		return err
	}

	gateErr := c.Next()
	if gateErr == nil {
		gateErr = c.CheckSubmission()
	}

	if s, ok := e.catalog.Get(c.Draft().ScholarshipID); ok {
		renderEligibility(stdout, s, c.Draft(), time.Now())
	}

	renderErrors(stdout, c.Errors())
	if gateErr != nil {
		return gateErr
	}
	printSuccess(stdout, "Draft is ready to submit")
	return nil
}

func submitCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	draftPath := fs.String("draft", "", "Path to draft JSON file (required)")
	scholarshipID := fs.String("scholarship", "", "Scholarship id, overrides the draft's")
	metricsAddr := fs.String("metrics-addr", "", "Serve /metrics on this address while submitting")
	resume := fs.Bool("resume", false, "Submit the draft saved for the signed-in user instead of -draft")
	_ = fs.Parse(args)

	if *draftPath == "" && !*resume {
		return errors.New("-draft is required")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	obs := observability.NewNoop()
	if e.cfg.Metrics.Enabled || *metricsAddr != "" {
		obs = observability.New(e.cfg.App.Name, e.log)
		addr := *metricsAddr
		if addr == "" {
			addr = e.cfg.Metrics.Address
		}
		srv := serveMetrics(addr, e.log)
		defer func() { _ = srv.Close() }()
	}
	defer obs.Shutdown()

	sess, err := e.session(ctx)
	if err != nil {
		return err
	}
	rec, err := e.loadRecord(ctx, sess, *draftPath, *resume)
	if err != nil {
		return err
	}
	c, err := loadController(e, sess, rec, *scholarshipID, form.WithObservability(obs))
	if err != nil {
		return err
	}

	if err := c.Next(); err != nil {
		renderErrors(stdout, c.Errors())
		return err
	}
	conf, err := c.Submit(ctx)
	if err != nil {
		renderErrors(stdout, c.Errors())
		return err
	}

	printSuccess(stdout, "Application submitted")
	fmt.Fprintf(stdout, "Application ID: %s\n", conf.ApplicationID)
	if conf.ScholarshipName != "" {
		fmt.Fprintf(stdout, "Scholarship:    %s\n", conf.ScholarshipName)
	}
	return nil
}

func saveCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	draftPath := fs.String("draft", "", "Path to draft JSON file (required)")
	_ = fs.Parse(args)

	if *draftPath == "" {
		return errors.New("-draft is required")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess, err := e.session(ctx)
	if err != nil {
		return err
	}
	rec, err := readDraft(*draftPath)
	if err != nil {
		return err
	}
	c, err := loadController(e, sess, rec, "")
	if err != nil {
		return err
	}
	if err := c.SaveDraft(ctx); err != nil {
		return err
	}
	printSuccess(stdout, "Draft saved for "+sess.CurrentProfile().UserID)
	return nil
}

func scoresCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scores", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	applications := fs.String("application", "", "Application id, or a comma-separated list to rank (required)")
	asJSON := fs.Bool("json", false, "Print the summaries as JSON")
	_ = fs.Parse(args)

	ids := splitList(*applications)
	if len(ids) == 0 {
		return errors.New("-application is required")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess, err := e.session(ctx)
	if err != nil {
		return err
	}

	summaries := make(map[string]review.Summary, len(ids))
	for _, id := range ids {
		evals, err := e.client.ListEvaluations(ctx, sess.CurrentToken(), id)
		if err != nil {
			return fmt.Errorf("application %s: %w", id, err)
		}
		summaries[id] = review.Summarize(review.FromPortal(evals))
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if len(ids) == 1 {
			return enc.Encode(summaries[ids[0]])
		}
		return enc.Encode(summaries)
	}

	for _, id := range ids {
		renderSummary(stdout, id, summaries[id])
	}
	if len(ids) > 1 {
		renderRanking(stdout, summaries)
	}
	return nil
}

func scholarshipsCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scholarships", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	all := fs.Bool("all", false, "Include closed and inactive scholarships")
	_ = fs.Parse(args)

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer e.close()

	if e.catalog == nil {
		return errors.New("no scholarship catalog loaded, check catalog.path")
	}
	list := e.catalog.Open(time.Now())
	if *all {
		list = e.catalog.Scholarships
	}
	renderScholarships(stdout, list)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func serveMetrics(addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("metrics server listening", map[string]interface{}{"address": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	return srv
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
