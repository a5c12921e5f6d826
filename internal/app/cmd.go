package app

// Command は実行バイナリのサブコマンドを表す。
type Command string

const (
	// CommandServe はHTTP APIサーバーを起動する（フィード更新スケジューラー込み）。
	CommandServe Command = "serve"
	// CommandWorker は保持期間クリーンアップワーカーを起動する。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーママイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの/healthを確認して終了する。
	// シェルを持たないコンテナイメージのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 未指定および未知の値はserveとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch cmd := Command(args[0]); cmd {
	case CommandWorker, CommandMigrate, CommandHealthcheck:
		return cmd
	default:
		return CommandServe
	}
}
