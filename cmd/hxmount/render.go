package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pthm/hxmount"
	"github.com/pthm/hxmount/config"
	"github.com/pthm/hxmount/dom"
	"github.com/pthm/hxmount/storage"
	"github.com/pthm/hxmount/storage/natskv"
	"github.com/pthm/hxmount/visibility"
)

const mountTimeout = 10 * time.Second

type renderOptions struct {
	configPath string
	output     string
	verbose    bool
	stats      bool
}

func parseRenderArgs(args []string) (renderOptions, error) {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "-o":
			if i+1 >= len(args) {
				return opts, errors.New("-o needs a file name")
			}
			i++
			opts.output = args[i]
		case "-v":
			opts.verbose = true
		case "--stats":
			opts.stats = true
		default:
			if opts.configPath != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.configPath = arg
		}
	}
	if opts.configPath == "" {
		return opts, errors.New("render needs a config file")
	}
	return opts, nil
}

func runRender(args []string) (err error) {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	out := io.Writer(os.Stdout)
	if opts.output != "" {
		f, ferr := os.Create(opts.output)
		if ferr != nil {
			return ferr
		}
		defer closeOutput(f, opts.output, &err)
		out = f
	}

	promReg := prometheus.NewRegistry()
	ctx := context.Background()
	if err := render(ctx, cfg, out, logger, promReg, opts.verbose); err != nil {
		return err
	}
	if opts.stats {
		return printStats(os.Stderr, promReg)
	}
	return nil
}

// closeOutput closes c and reports its error through err unless err
// already holds one.
func closeOutput(c io.Closer, name string, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close %s: %w", name, cerr)
	}
}

// render mounts every component cfg declares into a fresh document and
// writes the document to w.
func render(ctx context.Context, cfg *config.Config, w io.Writer, logger *slog.Logger, promReg prometheus.Registerer, verbose bool) error {
	doc := dom.NewDocument(cfg.Document.Title)
	for _, href := range cfg.Document.Stylesheets {
		doc.AddStylesheet(href)
	}

	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	var backend storage.Backend = storage.NewMemory()
	if cfg.State.NATS.URL != "" {
		var kvOpts []natskv.Option
		if cfg.State.NATS.Timeout > 0 {
			kvOpts = append(kvOpts, natskv.WithTimeout(cfg.State.NATS.Timeout))
		}
		bucket := cfg.State.NATS.Bucket
		if bucket == "" {
			bucket = "hxmount"
		}
		kv, closeFn, err := natskv.Open(ctx, cfg.State.NATS.URL, bucket, kvOpts...)
		if err != nil {
			return fmt.Errorf("open state bucket: %w", err)
		}
		defer closeFn()
		backend = kv
	}

	metrics, err := hxmount.NewMetrics(promReg)
	if err != nil {
		return err
	}

	reg := hxmount.NewRegistry(
		hxmount.WithLogger(logger),
		hxmount.WithMetrics(metrics),
		hxmount.WithDocument(doc),
		hxmount.WithInjector(dom.NewInjector(doc)),
		hxmount.WithAdopter(dom.Adopter{}),
		hxmount.WithTracker(visibility.Static{}),
		hxmount.WithConditionWaiter(visibility.Static{}),
		hxmount.WithStorage(backend, codec),
	)
	cfg.ApplyDefaults(reg.Defaults)

	declared := make(map[*dom.Element]config.ComponentConfig, len(cfg.Components))
	for _, cc := range cfg.Components {
		attrs := make([]string, 0, 2*len(cc.Attrs))
		for _, name := range sortedKeys(cc.Attrs) {
			attrs = append(attrs, name, cc.Attrs[name])
		}
		el := doc.Body().AppendChild(dom.NewElement(cc.Tag, attrs...))
		if cc.Shadow {
			el.AttachShadow()
		}
		declared[el] = cc

		if reg.Elements().IsDefined(cc.Tag) {
			continue
		}
		factory := func(reg *hxmount.Registry, host hxmount.Element) (*hxmount.Component, error) {
			el, ok := host.(*dom.Element)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected element %T", hxmount.ErrInvalidConfig, host)
			}
			cc := declared[el]
			body := cc.Body
			return hxmount.New(reg, el,
				hxmount.WithVerbose(verbose),
				hxmount.WithStyles(cc.Styles),
				hxmount.WithShadowDOM(cc.Shadow),
				hxmount.WithRenderer(dom.NewRenderer(el, func(context.Context) templ.Component {
					return templ.Raw(body)
				})),
			)
		}
		if err := reg.Define(cc.Tag, nil, factory); err != nil {
			return err
		}
	}

	comps, err := doc.Upgrade(reg)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, mountTimeout)
	defer cancel()
	var errs []error
	for _, c := range comps {
		if err := c.Wait(waitCtx); err != nil {
			errs = append(errs, fmt.Errorf("<%s id=%q>: %w", c.Tag(), c.ID(), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	return doc.Render(ctx, w)
}

func printStats(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels string
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				fmt.Fprintf(w, "%s%s count=%d sum=%gs\n", mf.GetName(), labels, m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
