// framecache builds and maintains an incremental, parallel index of frame files under one or more
// root directories.
//
// Usage:
//
//	framecache NAMESPACE [DIR...] [options]
//
// See -h for the full option list.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"framecache/auth"
	"framecache/config"
	"framecache/driver"
	"framecache/emit"
	"framecache/errs"
	"framecache/filesys"
	"framecache/notify"
	"framecache/pgstore"
	"framecache/process"
	"framecache/scan"
	"framecache/status"
	"framecache/statussrv"
	"framecache/store"
)

type extensionFlag []string

func (e *extensionFlag) String() string     { return strings.Join(*e, ",") }
func (e *extensionFlag) Set(v string) error { *e = append(*e, v); return nil }

func main() {
	status.Start("framecache")
	if err := run(); err != nil {
		status.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	var (
		extensions   extensionFlag
		output       string
		fileModeStr  string
		ipcFile      string
		protocol     string
		concurrency  int
		tempdir      string
		statusOnly   bool
		aliasFile    string
		kafkaBroker  string
		mirrorDSN    string
		listen       string
		passwordFile string
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s NAMESPACE [DIR...] [options]\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Var(&extensions, "e", "Accept files with this `extension` (no dot); repeatable")
	flag.Var(&extensions, "extension", "Accept files with this `extension` (no dot); repeatable")
	flag.StringVar(&output, "o", "-", "Where the emitted format goes, `path` or -")
	flag.StringVar(&output, "output", "-", "Where the emitted format goes, `path` or -")
	flag.StringVar(&fileModeStr, "m", "0644", "`mode` applied to atomically-published files")
	flag.StringVar(&fileModeStr, "output-file-mode", "0644", "`mode` applied to atomically-published files")
	flag.StringVar(&ipcFile, "i", "", "Worker mode: write IPC payload to this `path` instead of mutating the persistent cache")
	flag.StringVar(&ipcFile, "ipc-file", "", "Worker mode: write IPC payload to this `path` instead of mutating the persistent cache")
	flag.StringVar(&protocol, "p", "", "Emit in this `protocol` (ldas|pmdc|dcfs); if omitted, no emission")
	flag.StringVar(&protocol, "protocol", "", "Emit in this `protocol` (ldas|pmdc|dcfs); if omitted, no emission")
	flag.IntVar(&concurrency, "r", 0, "Max live `workers`")
	flag.IntVar(&concurrency, "concurrency", 0, "Max live `workers`")
	flag.StringVar(&tempdir, "t", "", "Parent `directory` for the scratch directory")
	flag.StringVar(&tempdir, "tempdir", "", "Parent `directory` for the scratch directory")
	flag.BoolVar(&statusOnly, "s", false, "Print header and exit")
	flag.BoolVar(&statusOnly, "status", false, "Print header and exit")
	flag.StringVar(&aliasFile, "a", "", "Resolve root arguments through this alias `file` before scanning")
	flag.StringVar(&aliasFile, "alias-file", "", "Resolve root arguments through this alias `file` before scanning")
	flag.StringVar(&kafkaBroker, "k", "", "Publish per-directory change events to this `broker` after aggregation")
	flag.StringVar(&kafkaBroker, "kafka-broker", "", "Publish per-directory change events to this `broker` after aggregation")
	flag.StringVar(&mirrorDSN, "mirror-dsn", "", "Also upsert touched fragments/hot entries into this Postgres `dsn`")
	flag.StringVar(&listen, "l", "", "After scan/publish, serve /status and /index/{dir} on this `addr` until killed")
	flag.StringVar(&listen, "listen", "", "After scan/publish, serve /status and /index/{dir} on this `addr` until killed")
	flag.StringVar(&passwordFile, "password-file", "", "HTTP basic auth `file` for -l, username:password lines")
	flag.Parse()

	// Options may follow the positional arguments; the flag package stops at the first positional,
	// so parsing resumes after each one.
	var args []string
	for rest := flag.Args(); len(rest) > 0; rest = flag.Args() {
		args = append(args, rest[0])
		if err := flag.CommandLine.Parse(rest[1:]); err != nil {
			return err
		}
	}
	if len(args) < 1 {
		flag.Usage()
		return errs.ErrBadUsage
	}
	namespace := args[0]
	roots := args[1:]

	if defaults, err := config.LoadDefaults(namespace + ".ini"); err == nil {
		config.ApplyString(&protocol, defaults.Protocol)
		if concurrency == 0 && defaults.Concurrency != "" {
			if v, err := strconv.Atoi(defaults.Concurrency); err == nil {
				concurrency = v
			}
		}
		if len(extensions) == 0 && defaults.Extensions != "" {
			extensions = extensionFlag(strings.Split(defaults.Extensions, ","))
		}
		modeGiven := false
		flag.Visit(func(f *flag.Flag) {
			if f.Name == "m" || f.Name == "output-file-mode" {
				modeGiven = true
			}
		})
		if !modeGiven && defaults.OutputMode != "" {
			fileModeStr = defaults.OutputMode
		}
	}
	if concurrency == 0 {
		concurrency = 5
	}
	if len(extensions) == 0 {
		extensions = extensionFlag{"gwf"}
	}

	fileMode, err := parseMode(fileModeStr)
	if err != nil {
		return fmt.Errorf("bad -m value %q: %w", fileModeStr, err)
	}

	if aliasFile != "" {
		aliases, err := config.ReadAliases(aliasFile)
		if err != nil {
			return fmt.Errorf("reading alias file: %w", err)
		}
		roots = aliases.ResolveAll(roots)
	}
	for i, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			return err
		}
		roots[i] = a
	}

	if ipcFile != "" {
		if len(roots) != 1 {
			return fmt.Errorf("%w: -i requires exactly one directory argument", errs.ErrBadUsage)
		}
		return runWorker(namespace, roots[0], ipcFile)
	}

	if err := rejectOverlappingRoots(roots); err != nil {
		return err
	}

	return runMaster(masterConfig{
		namespace:    namespace,
		roots:        roots,
		extensions:   extensions,
		output:       output,
		fileMode:     fileMode,
		protocol:     protocol,
		concurrency:  concurrency,
		tempdir:      tempdir,
		statusOnly:   statusOnly,
		kafkaBroker:  kafkaBroker,
		mirrorDSN:    mirrorDSN,
		listen:       listen,
		passwordFile: passwordFile,
	})
}

func parseMode(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(v), nil
}

func rejectOverlappingRoots(roots []string) error {
	abs := make([]string, len(roots))
	for i, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			return err
		}
		abs[i] = filepath.Clean(a)
	}
	sort.Strings(abs)
	for i := 1; i < len(abs); i++ {
		if abs[i] == abs[i-1] || strings.HasPrefix(abs[i], abs[i-1]+string(filepath.Separator)) {
			return fmt.Errorf("%w: roots %q and %q overlap", errs.ErrBadUsage, abs[i-1], abs[i])
		}
	}
	return nil
}

// runWorker is invoked when -i is given: scan exactly one root and write the results to the IPC
// file instead of touching the persistent cache.
func runWorker(namespace, root, ipcPath string) error {
	ns, err := store.LoadNamespace(namespace)
	if err != nil {
		return err
	}
	res := scan.Scan(scan.OSFS{}, root, ns.Hot, func(e error) { status.Warning(e.Error()) })
	keyed := store.NewMemKeyedStore()
	for dir, frag := range res.Fragments {
		if err := keyed.Set(dir, frag); err != nil {
			return err
		}
	}
	payload := &driver.Payload{DC: map[string]store.Fragment{}, Hot: map[string]int64{}}
	for _, dir := range keyed.Keys() {
		frag, _ := keyed.Get(dir)
		payload.DC[dir] = frag
	}
	for dir, mtime := range res.Hot {
		payload.Hot[dir] = mtime
	}
	return driver.WritePayload(ipcPath, payload)
}

type masterConfig struct {
	namespace    string
	roots        []string
	extensions   extensionFlag
	output       string
	fileMode     os.FileMode
	protocol     string
	concurrency  int
	tempdir      string
	statusOnly   bool
	kafkaBroker  string
	mirrorDSN    string
	listen       string
	passwordFile string
}

func runMaster(cfg masterConfig) error {
	s, err := store.Open(cfg.namespace, cfg.fileMode)
	if err != nil {
		return err
	}

	if cfg.statusOnly {
		s.AbandonLock()
		return printStatus(s)
	}

	scanStart := time.Now()
	changed := map[string]store.Fragment{}
	if len(cfg.roots) > 0 {
		var scratchDir string
		if len(cfg.roots) > 1 {
			scratch := cfg.tempdir
			if scratch == "" {
				scratch = os.TempDir()
			}
			sd, err := os.MkdirTemp(scratch, "framecache-")
			if err != nil {
				s.AbandonLock()
				return err
			}
			scratchDir = sd
		}
		opts := driver.Options{
			ProgramPath: os.Args[0],
			Namespace:   cfg.namespace,
			ScratchDir:  scratchDir,
			Concurrency: cfg.concurrency,
			ErrLog:      func(e error) { status.Warning(e.Error()) },
		}
		before := snapshotKeys(s)
		if err := driver.Run(opts, cfg.roots, s); err != nil {
			s.AbandonLock()
			return err
		}
		changed = diffKeys(s, before)
	}
	scanSeconds := time.Since(scanStart).Seconds()

	writeStart := time.Now()
	if err := s.Close(scanSeconds, time.Since(writeStart).Seconds()); err != nil {
		return err
	}

	if cfg.mirrorDSN != "" {
		mirrorChanges(cfg.mirrorDSN, changed, s.Namespace.Hot)
	}
	if cfg.kafkaBroker != "" {
		notifyChanges(cfg.kafkaBroker, cfg.namespace, changed, s.Namespace.Hot)
	}

	if cfg.protocol != "" {
		if err := emitOutput(cfg, s); err != nil {
			return err
		}
	}

	if cfg.listen != "" {
		return serveStatus(cfg)
	}
	return nil
}

func snapshotKeys(s *store.Store) map[string]bool {
	seen := map[string]bool{}
	for _, k := range s.Keyed.Keys() {
		seen[k] = true
	}
	return seen
}

// diffKeys returns every fragment currently in the store whose key was not present in before --
// an approximation of "changed this run" adequate for the notifier/mirror, which are soft,
// best-effort sinks.
func diffKeys(s *store.Store, before map[string]bool) map[string]store.Fragment {
	changed := map[string]store.Fragment{}
	for _, k := range s.Keyed.Keys() {
		if before[k] {
			continue
		}
		if frag, ok := s.Keyed.Get(k); ok {
			changed[k] = frag
		}
	}
	return changed
}

func mirrorChanges(dsn string, changed map[string]store.Fragment, hot map[string]int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m, err := pgstore.Open(ctx, dsn)
	if err != nil {
		status.Warning(fmt.Sprintf("mirror: %v", err))
		return
	}
	defer m.Close(ctx)
	if err := m.UpsertChanges(ctx, changed, hot); err != nil {
		status.Warning(fmt.Sprintf("mirror: %v", err))
	}
}

func notifyChanges(broker, namespace string, changed map[string]store.Fragment, hot map[string]int64) {
	n, err := notify.Open(broker, filepath.Base(namespace))
	if err != nil {
		status.Warning(fmt.Sprintf("notify: %v", err))
		return
	}
	defer n.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n.PublishChanges(ctx, changed, hot, func(dir string, err error) {
		status.Warning(fmt.Sprintf("notify: %s: %v", dir, err))
	})
}

func emitOutput(cfg masterConfig, s *store.Store) error {
	index := map[string]store.Fragment{}
	for _, k := range s.Keyed.Keys() {
		if frag, ok := s.Keyed.Get(k); ok {
			index[k] = frag
		}
	}
	accept := emit.Extensions{}
	for _, e := range cfg.extensions {
		accept[e] = true
	}

	if cfg.output == "-" {
		return emit.Emit(os.Stdout, emit.Format(cfg.protocol), index, s.Namespace.Hot, accept)
	}
	return filesys.PublishAtomic(cfg.output, cfg.fileMode, func(w io.Writer) error {
		return emit.Emit(w, emit.Format(cfg.protocol), index, s.Namespace.Hot, accept)
	})
}

func serveStatus(cfg masterConfig) error {
	var authn *auth.Authenticator
	if cfg.passwordFile != "" {
		a, err := auth.ReadPasswords(cfg.passwordFile)
		if err != nil {
			return err
		}
		authn = a
	}
	srv := statussrv.New(cfg.listen, cfg.namespace, authn)
	go srv.Start(nil)
	process.WaitForSignal(os.Interrupt, syscall.SIGTERM)
	srv.Stop()
	return nil
}

func printStatus(s *store.Store) error {
	h := s.Namespace.Header
	fmt.Printf("version=%s initial_run=%v last_run=%s dir_count=%d\n",
		h.Version, h.InitialRun, h.LastRun.Format(time.RFC3339), h.DirCount)
	return nil
}
