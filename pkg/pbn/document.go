// Package pbn 实现 PBN 文本的最小文档模型：按记录解析标签/原样行，并保序回写。
package pbn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Entry: 记录中的一行；IsTag 为真时是标签对，否则为原样行（注释/转义/叫牌正文）。
type Entry struct {
	IsTag bool
	Name  string
	Value string
	Line  string
}

// GameRecord: 一局牌的标签与原样行（保持原始相对顺序）。
type GameRecord struct {
	entries []Entry
	// Deal 仅当 Deal 标签解析成功时非 nil。
	Deal *Deal
	// DealErr 记录 Deal 标签的解析失败（由编排层记录日志，不计入错误）。
	DealErr error
}

// Entries 返回条目副本。
func (g *GameRecord) Entries() []Entry {
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// TagCount 返回标签数量。
func (g *GameRecord) TagCount() int {
	n := 0
	for _, e := range g.entries {
		if e.IsTag {
			n++
		}
	}
	return n
}

// Tag 按名称查找（大小写不敏感，首个命中）。
func (g *GameRecord) Tag(name string) (string, bool) {
	for _, e := range g.entries {
		if e.IsTag && strings.EqualFold(e.Name, name) {
			return e.Value, true
		}
	}
	return "", false
}

// SetTag 更新标签：已存在时覆盖 Tag 读到的同一条（首个同名标签），写后即读；
// 不存在时插入到最后一个标签之后，使其位于正文原样行之前。
func (g *GameRecord) SetTag(name, value string) {
	last := -1
	hit := -1
	for i, e := range g.entries {
		if !e.IsTag {
			continue
		}
		last = i
		if hit < 0 && strings.EqualFold(e.Name, name) {
			hit = i
		}
	}
	if hit >= 0 {
		g.entries[hit].Value = value
		return
	}
	tag := Entry{IsTag: true, Name: name, Value: value}
	at := last + 1
	g.entries = append(g.entries, Entry{})
	copy(g.entries[at+1:], g.entries[at:])
	g.entries[at] = tag
}

// AppendLine 追加原样行。
func (g *GameRecord) AppendLine(line string) {
	g.entries = append(g.entries, Entry{Line: line})
}

func (g *GameRecord) addTag(name, value string) {
	g.entries = append(g.entries, Entry{IsTag: true, Name: name, Value: value})
	if !strings.EqualFold(name, "Deal") {
		return
	}
	d, err := ParseDeal(value)
	if err != nil {
		g.Deal, g.DealErr = nil, err
		return
	}
	g.Deal, g.DealErr = d, nil
}

// Parse 读取整份 PBN 文本，返回记录序列。
// 规则（逐行，判定前去除首尾空白）：
//   - 空行：结束当前记录（仅当含至少一个标签时保留）；
//   - % 或 ; 开头：原样行（必要时新开记录）；
//   - [Name "Value"]：标签；Deal 额外解析为牌面；
//   - 其他：原样行。
//
// 输入结束时按同一规则收尾。CRLF 统一为 LF。
func Parse(ctx context.Context, r io.Reader) ([]*GameRecord, error) {
	br := bufio.NewReader(r)
	var (
		recs []*GameRecord
		cur  *GameRecord
	)
	flush := func() {
		if cur != nil && cur.TagCount() > 0 {
			recs = append(recs, cur)
		}
		cur = nil
	}
	for {
		if err := ctxErr(ctx); err != nil {
			return nil, err
		}
		line, eof, err := readTrimmedLine(br)
		if err != nil {
			return nil, err
		}
		if eof {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if cur == nil {
			cur = &GameRecord{}
		}
		if strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, ";") {
			cur.AppendLine(line)
			continue
		}
		if name, value, ok := parseTagPair(trimmed); ok {
			cur.addTag(name, value)
			continue
		}
		cur.AppendLine(line)
	}
	flush()
	return recs, nil
}

// ParseString 为 Parse 的字符串便捷版本。
func ParseString(s string) ([]*GameRecord, error) {
	return Parse(context.Background(), strings.NewReader(s))
}

// parseTagPair 解析 [Name "Value"]：名称取首个空格前，值去除两侧引号（内部空白保留）。
func parseTagPair(s string) (name, value string, ok bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	name, rest, found := strings.Cut(inner, " ")
	if !found || name == "" {
		return "", "", false
	}
	return name, strings.Trim(rest, `"`), true
}

// Render 按存储顺序写出全部记录；记录之间以一个空行分隔。
func Render(w io.Writer, recs []*GameRecord) error {
	bw := bufio.NewWriter(w)
	for i, g := range recs {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		for _, e := range g.entries {
			var err error
			if e.IsTag {
				_, err = fmt.Fprintf(bw, "[%s \"%s\"]\n", e.Name, e.Value)
			} else {
				_, err = bw.WriteString(e.Line + "\n")
			}
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// RenderString 为 Render 的字符串便捷版本。
func RenderString(recs []*GameRecord) string {
	var sb strings.Builder
	_ = Render(&sb, recs)
	return sb.String()
}

// readTrimmedLine 读取一行，归一 CRLF→LF，并去除结尾换行符；返回该行、是否 EOF。
func readTrimmedLine(br *bufio.Reader) (line string, eof bool, err error) {
	s, err := br.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			eof = true
		} else {
			return "", false, err
		}
	}
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, eof && s == "", nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
