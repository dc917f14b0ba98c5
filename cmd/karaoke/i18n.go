// Package main provides localization for the karaoke CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Render karaoke lyric videos with word-accurate highlighting.": "単語単位のハイライト付きカラオケ歌詞動画をレンダリング",

		// Commands
		"Render the project and encode it to a video file.":       "プロジェクトをレンダリングして動画ファイルにエンコード",
		"Play the project offline, saving frames as PNG files.":   "プロジェクトをオフライン再生し、フレームをPNGとして保存",
		"Show the ffmpeg build's encoders, formats and accelerators.": "ffmpegビルドのエンコーダ・フォーマット・アクセラレータを表示",

		// Flags
		"Project YAML file with cues, styling and encoding settings.":          "歌詞タイミング・スタイル・エンコード設定を含むプロジェクトYAMLファイル",
		"Log level (debug, info, warn, error, quiet).":                         "ログレベル（debug, info, warn, error, quiet）",
		"Path to the ffmpeg binary (falls back to FFMPEG_PATH env, then $PATH).": "ffmpegバイナリのパス（FFMPEG_PATH環境変数、$PATHの順にフォールバック）",
		"Path to the ffmpeg binary.":                "ffmpegバイナリのパス",
		"Output file path (overrides the config).":  "出力ファイルパス（設定を上書き）",
		"Override the timeline duration in seconds.": "タイムラインの長さを秒で上書き",
		"Save per-frame debug artifacts.":           "フレームごとのデバッグ成果物を保存",
		"Directory for debug output.":               "デバッグ出力のディレクトリ",
		"Directory preview frames are written to.":  "プレビューフレームの出力先ディレクトリ",
		"Preview frame rate.":                       "プレビューのフレームレート",
		"Start position in seconds.":                "開始位置（秒）",
	})
}
