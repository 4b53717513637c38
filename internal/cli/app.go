package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/codalotl/codepal/internal/assistant"
	"github.com/codalotl/codepal/internal/config"
	"github.com/codalotl/codepal/internal/health"
	"github.com/codalotl/codepal/internal/host"
	"github.com/codalotl/codepal/internal/keystore"
	"github.com/codalotl/codepal/internal/llmcomplete"
	"github.com/codalotl/codepal/internal/logging"
	"github.com/codalotl/codepal/internal/termtext"
	"github.com/codalotl/codepal/internal/workspace"
)

// app is the state shared by one invocation's commands.
type app struct {
	in   io.Reader
	out  io.Writer
	errW io.Writer

	// Flags.
	verbose  bool
	provider string
	model    string

	logger    *slog.Logger
	logCloser io.Closer

	cfg    *config.Config
	cfgErr error
}

// newCompleter builds the model backend. Tests replace it.
var newCompleter = buildCompleter

func (a *app) initLogger() {
	if a.logger != nil {
		return
	}
	a.logger, a.logCloser = logging.New(logging.Options{Verbose: a.verbose, Stderr: a.errW})
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// config loads the configuration once, applying --provider and --model.
func (a *app) config() (config.Config, error) {
	if a.cfg != nil || a.cfgErr != nil {
		if a.cfgErr != nil {
			return config.Config{}, a.cfgErr
		}
		return *a.cfg, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		a.cfgErr = err
		return config.Config{}, err
	}
	cfg, err := config.Load(cwd)
	if err == nil {
		if a.provider != "" {
			cfg.Provider = a.provider
			cfg.Sources = append(cfg.Sources, "--provider")
		}
		if a.model != "" {
			cfg.Model = a.model
			cfg.Sources = append(cfg.Sources, "--model")
		}
		err = cfg.Validate()
	}
	if err != nil {
		a.cfgErr = health.WrapHuman(err.Error(), "cli.config", err)
		return config.Config{}, a.cfgErr
	}
	a.cfg = &cfg
	return cfg, nil
}

func (a *app) keys() (*keystore.Store, error) {
	path, err := keystore.DefaultPath()
	if err != nil {
		return nil, err
	}
	return keystore.New(path), nil
}

func buildCompleter(cfg config.Config, keys *keystore.Store, logger *slog.Logger) (llmcomplete.Completer, error) {
	var c llmcomplete.Completer
	switch cfg.Provider {
	case config.ProviderOllama:
		o, err := llmcomplete.NewOllama(llmcomplete.OllamaOptions{BaseURL: cfg.BaseURL, Model: cfg.Model, Logger: logger})
		if err != nil {
			return nil, err
		}
		c = o
	default:
		key, err := keys.Get(config.ProviderOpenAI)
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, health.WrapHuman("no OpenAI API key: run `codepal keys set openai` or set "+keystore.EnvVar(config.ProviderOpenAI), "cli.api_key", err)
		} else if err != nil {
			return nil, err
		}
		o, err := llmcomplete.NewOpenAI(llmcomplete.OpenAIOptions{APIKey: key, BaseURL: cfg.BaseURL, Model: cfg.Model, Logger: logger})
		if err != nil {
			return nil, err
		}
		c = o
	}
	return llmcomplete.WithTokenBudget(llmcomplete.WithRetry(c, 0, logger), cfg.MaxInputTokens), nil
}

// session is everything a model-backed command needs.
type session struct {
	cfg       config.Config
	root      string
	terminal  *host.Terminal
	assistant *assistant.Assistant
}

// newSession prepares a terminal host and assistant for a project rooted at root, with path (may be empty) as the active document.
func (a *app) newSession(root, path string, selection *host.Range) (*session, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	keys, err := a.keys()
	if err != nil {
		return nil, err
	}
	completer, err := newCompleter(cfg, keys, a.logger)
	if err != nil {
		return nil, err
	}

	panelDir := cfg.PanelDir
	if !filepath.IsAbs(panelDir) {
		panelDir = filepath.Join(root, panelDir)
	}
	color := termtext.IsTerminal(a.out)
	width := 0
	if color {
		width = termtext.TerminalWidth(a.out)
	}
	term := host.NewTerminal(host.TerminalOptions{
		Path:      path,
		Selection: selection,
		PanelDir:  panelDir,
		Out:       a.out,
		Color:     color,
		Width:     width,
		Logger:    a.logger,
	})
	asst := assistant.New(term, completer, assistant.Options{
		Root:              root,
		ModulePath:        workspace.ModulePath(root),
		RequestsPerMinute: cfg.RequestsPerMinute,
		Walk:              workspace.Options{MaxFileBytes: cfg.MaxFileBytes, MaxFiles: cfg.MaxFiles},
		Logger:            a.logger,
	})
	a.logger.Debug("session", "root", root, "path", path, "provider", cfg.Provider, "model", cfg.Model)
	return &session{cfg: cfg, root: root, terminal: term, assistant: asst}, nil
}

// fileSession is newSession for a single file, with the project root found from the file's directory.
func (a *app) fileSession(path string, selection *host.Range) (*session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, usageErrorf("%s is a directory", path)
	}
	return a.newSession(workspace.FindRoot(filepath.Dir(abs)), abs, selection)
}
