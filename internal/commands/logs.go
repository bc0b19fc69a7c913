package commands

import (
	"bufio"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/helmwright/helmwright/tui/theme"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show helmwright's own logs for this project",
		Long: `Prints log lines from .helmwright/logs. Each component (push, router,
watcher, ...) writes its own per-day file; by default all components are
aggregated with a component prefix.`,
		Example: `  # Last 50 lines per component
  helmwright logs --tail 50

  # Follow the live logs while a watch session runs
  helmwright logs -f

  # Only the push client's lines
  helmwright logs -f --component push`,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of each file (default: all)")
	cmd.Flags().String("component", "", "Only show lines from this component")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")
	tailLines, _ := cmd.Flags().GetInt("tail")
	component, _ := cmd.Flags().GetString("component")

	files, err := findLogFiles(filepath.Join(".helmwright", "logs"), component)
	if err != nil {
		return err
	}

	if !follow {
		for _, file := range files {
			if err := printLogFile(file, tailLines); err != nil {
				return err
			}
		}
		return nil
	}

	lineChan := make(chan tailedLine, 100)
	var wg sync.WaitGroup
	for _, file := range files {
		wg.Add(1)
		go tailLogFile(file, lineChan, &wg)
	}
	go func() {
		wg.Wait()
		close(lineChan)
	}()

	for line := range lineChan {
		fmt.Printf("%s %s\n", theme.DefaultTheme.Muted.Render("["+line.component+"]"), line.text)
	}
	return nil
}

type tailedLine struct {
	component string
	text      string
}

// findLogFiles returns the newest log file per component, optionally
// restricted to one component. Files are named <component>-<date>.log.
func findLogFiles(dir, component string) ([]string, error) {
	pattern := "*.log"
	if component != "" {
		pattern = component + "-*.log"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no log files found in %s, run 'helmwright watch' first", dir)
	}

	// Keep only the newest file per component
	newest := make(map[string]string)
	for _, path := range matches {
		comp := componentFromLogFile(path)
		if prev, ok := newest[comp]; !ok || newerFile(path, prev) {
			newest[comp] = path
		}
	}

	var files []string
	for _, path := range newest {
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// componentFromLogFile strips the trailing -<date>.log from a file name.
func componentFromLogFile(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".log")
	if idx := strings.LastIndex(name, "-"); idx > 0 {
		// Date suffix is 2006-01-02, so strip the last three segments
		parts := strings.Split(name, "-")
		if len(parts) > 3 {
			return strings.Join(parts[:len(parts)-3], "-")
		}
	}
	return name
}

func newerFile(a, b string) bool {
	aInfo, aErr := os.Stat(a)
	bInfo, bErr := os.Stat(b)
	if aErr != nil || bErr != nil {
		return a > b
	}
	return aInfo.ModTime().After(bInfo.ModTime())
}

func printLogFile(path string, tailLines int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	component := componentFromLogFile(path)

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if tailLines >= 0 && len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}
	for _, line := range lines {
		fmt.Printf("%s %s\n", theme.DefaultTheme.Muted.Render("["+component+"]"), line)
	}
	return nil
}

// tailLogFile streams appended lines into the aggregation channel.
func tailLogFile(path string, lineChan chan<- tailedLine, wg *sync.WaitGroup) {
	defer wg.Done()

	component := componentFromLogFile(path)
	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return
	}
	defer t.Cleanup()

	for line := range t.Lines {
		if line.Err != nil {
			continue
		}
		lineChan <- tailedLine{component: component, text: line.Text}
	}
}
