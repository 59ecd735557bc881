package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"bba/pkg/contract"
)

// BenchmarkWrite 不同输出尺寸下的原子写入性能。
func BenchmarkWrite(b *testing.B) {
	for _, sz := range []int{1024, 1024 * 1024} {
		b.Run(fmt.Sprintf("size=%d", sz), func(b *testing.B) {
			data := bytes.Repeat([]byte("[Board \"1\"]\n"), sz/12)
			w, err := New(nil)
			if err != nil {
				b.Fatalf("创建 Writer 失败: %v", err)
			}
			id := contract.ArtifactID(filepath.Join(b.TempDir(), "out.pbn"))
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := w.Write(ctx, id, bytes.NewReader(data)); err != nil {
					b.Fatalf("写入失败: %v", err)
				}
			}
		})
	}
}
