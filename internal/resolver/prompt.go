package resolver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/harakeishi/composeports/pkg/types"
)

// TerminalPrompter は端末との対話で新しいポートを尋ねるPrompterです。
// 入力は別のゴルーチンで1行ずつ読み、コンテキストの中断と入力待ちを両立させます。
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer

	once      sync.Once
	closeOnce sync.Once
	lines     chan string
	errs      chan error
	done      chan struct{}
	stopped   chan struct{}
	err       error
}

// NewTerminalPrompter は新しいTerminalPrompterを作成します。
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:    in,
		out:   out,
		lines:   make(chan string),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// IsTerminal は入力が端末かどうかを返します。
func (p *TerminalPrompter) IsTerminal() bool {
	f, ok := p.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *TerminalPrompter) start() {
	p.once.Do(func() {
		go func() {
			defer close(p.stopped)
			scanner := bufio.NewScanner(p.in)
			for scanner.Scan() {
				select {
				case p.lines <- scanner.Text():
				case <-p.done:
					return
				}
			}
			err := scanner.Err()
			if err == nil {
				err = io.EOF
			}
			p.errs <- err
		}()
	})
}

// Ask は使用中のポートの情報を表示して、新しいポートを尋ねます。
func (p *TerminalPrompter) Ask(ctx context.Context, mapping types.PortMapping) (string, error) {
	fmt.Fprintf(p.out, "\n🔧 サービス '%s' のポート %d は使用中です\n", mapping.ServiceName, mapping.HostPort)
	if mapping.Owner != nil && mapping.Owner.Process != nil {
		fmt.Fprintf(p.out, "   使用中のプロセス: %s (PID: %d)\n", mapping.Owner.Process.Name, mapping.Owner.Process.PID)
	}
	if mapping.Owner != nil && mapping.Owner.Container != nil {
		fmt.Fprintf(p.out, "   使用中のコンテナ: %s\n", mapping.Owner.Container.Name)
	}
	fmt.Fprintf(p.out, "   %d の代わりのポートを入力してください ('%s' で自動選択): ", mapping.HostPort, autoKeyword)

	if p.err != nil {
		fmt.Fprintln(p.out)
		return "", p.err
	}

	p.start()
	select {
	case <-p.done:
		p.err = os.ErrClosed
		fmt.Fprintln(p.out)
		return "", p.err
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case line := <-p.lines:
		return line, nil
	case err := <-p.errs:
		p.err = err
		fmt.Fprintln(p.out)
		return "", err
	}
}

// Close は入力の読み込みを止めます。以降の Ask は os.ErrClosed を返します。
// 読み込みゴルーチンは、入力待ちの行が届いた時点か入力の終わりで終了します。
func (p *TerminalPrompter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// Reject は入力を受け付けなかった理由を表示します。
func (p *TerminalPrompter) Reject(ctx context.Context, reason string) {
	fmt.Fprintf(p.out, "   %s\n", color.RedString("❌ %s", reason))
}
