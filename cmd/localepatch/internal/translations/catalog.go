package translations

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// cat is built during variable initialization so T, which depends on it,
// always sees every language.
var cat = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, e := range zh {
		_ = b.SetString(language.Chinese, e[0], e[1])
	}
	return b
}

var zh = [][2]string{
	{"Patch localized messages and page sources of a multi-language site", "为多语言站点修补本地化消息和页面源码"},
	{"Merge a translation payload into locale dictionaries", "将翻译内容合并到语言字典中"},
	{"Insert a block into a source file at an anchor", "在源文件的锚点处插入代码块"},
	{"Run a batch plan of merge and patch jobs", "执行包含合并与修补任务的批处理计划"},
	{"Report missing, empty and extra keys per locale", "按语言报告缺失、空白和多余的键"},
	{"Inspect the record of applied operations", "查看已应用操作的记录"},
	{"Print the JSON schema of plan files", "输出计划文件的 JSON 模式"},
	{"Create localepatch.toml interactively", "交互式创建 localepatch.toml"},
	{"show what would change without writing files", "仅显示将要修改的内容，不写入文件"},
	{"use color in display output", "在输出中使用颜色"},
	{"depends on output being a TTY", "取决于输出是否为终端"},
	{"enable debug logging", "启用调试日志"},
	{"Apply %d jobs to %s?", "将 %d 个任务应用到 %s？"},
	{"Aborted.", "已取消。"},
	{"All locales complete.", "所有语言均已完整。"},
	{"%d locales incomplete", "%d 个语言不完整"},
	{"Wrote %s", "已写入 %s"},
	{"No operations recorded.", "尚无已记录的操作。"},
	{"Forgot %s", "已移除 %s"},
	{"Directory with the locale dictionaries", "语言字典所在目录"},
	{"Source locale", "源语言"},
	{"Locales (comma separated)", "语言列表（逗号分隔）"},
	{"Verify command run after source patches (empty to skip)", "源码修补后运行的校验命令（留空跳过）"},
	{"List applied operations, newest first", "列出已应用的操作，最新的在前"},
	{"Remove an operation so --skip-applied runs it again", "移除一条记录，使 --skip-applied 重新执行该操作"},
	{"JSON or YAML payload file, may contain {locale}", "JSON 或 YAML 内容文件，可包含 {locale}"},
	{"accept detected defaults without prompting", "不提示，直接采用检测到的默认值"},
	{"block to insert", "要插入的代码块"},
	{"dictionary file relative to the site root, may contain {locale}", "相对于站点根目录的字典文件，可包含 {locale}"},
	{"do not ask for confirmation", "不要求确认"},
	{"do not copy targets to the backup dir before writing", "写入前不将目标文件复制到备份目录"},
	{"do not run the configured verify command", "不运行已配置的校验命令"},
	{"dotted key to merge under; empty merges into the whole document", "合并到的点分键；留空则合并到整个文档"},
	{"file holding the block to insert, may contain {locale}", "包含待插入代码块的文件，可包含 {locale}"},
	{"insert before the anchor instead of after it", "插入到锚点之前而不是之后"},
	{"list every offending key", "列出每个有问题的键"},
	{"literal text marking the insertion point", "标记插入位置的字面文本"},
	{"locale whose payload is used when a locale has none", "某语言缺少内容时使用的后备语言"},
	{"locales to check (default: configured locales, or every dictionary found)", "要检查的语言（默认：已配置的语言，或找到的所有字典）"},
	{"locales to expand {locale} for (default: configured locales)", "用于展开 {locale} 的语言（默认：已配置的语言）"},
	{"locales to expand {locale} for", "用于展开 {locale} 的语言"},
	{"operation name recorded in the ledger", "记录在账本中的操作名称"},
	{"overwrite an existing config file", "覆盖已有的配置文件"},
	{"replace, assign or deep", "replace、assign 或 deep"},
	{"skip operations the ledger already records with the same content", "跳过账本中已以相同内容记录的操作"},
	{"source file to patch, relative to the site root", "要修补的源文件，相对于站点根目录"},
	{"which anchor match to use: unique, first or last", "使用哪个锚点匹配：unique、first 或 last"},
	{"where an earlier copy of the block counts as applied: adjacent or anywhere", "代码块的已有副本在何处视为已应用：adjacent 或 anywhere"},
}
