package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Export %s: %d frames at %.2f fps to %s": "書き出し %s: %d フレームを %.2f fps で %s へ出力します",
		"Output saved to %s":                    "出力を %s に保存しました",
		"Export cancelled":                      "書き出しをキャンセルしました",
		"Interrupted, shutting down...":         "中断されました。シャットダウン中...",

		// Probe command
		"ffmpeg %s":           "ffmpeg %s",
		"Video codecs: %s":    "動画コーデック: %s",
		"Audio codecs: %s":    "音声コーデック: %s",
		"Output formats: %s":  "出力フォーマット: %s",
		"HW accelerators: %s": "ハードウェアアクセラレータ: %s",

		// Preview
		"Previewing %s at %.2f fps": "%s を %.2f fps でプレビュー中",
		"Preview closed":            "プレビューを終了しました",

		// Warnings
		"Frame write failed: %s":                 "フレームの書き込みに失敗しました: %s",
		"Cannot probe encoder capabilities: %s":  "エンコーダの機能を確認できません: %s",
		"Output file %s not found after encoding": "エンコード後に出力ファイル %s が見つかりません",
		"Cannot verify output: %s":               "出力を検証できません: %s",
		"Output is %dx%d, expected %dx%d":        "出力が %dx%d です (期待値 %dx%d)",

		// Errors
		"Export failed: %s":          "書き出しに失敗しました: %s",
		"Failed to load config: %s":  "設定の読み込みに失敗しました: %s",
		"Failed to load cues: %s":    "歌詞タイミングの読み込みに失敗しました: %s",
		"Failed to load font: %s":    "フォントの読み込みに失敗しました: %s",
		"Failed to open image: %s":   "画像を開けませんでした: %s",
		"ffmpeg not found: %s":       "ffmpeg が見つかりません: %s",
	})
}
