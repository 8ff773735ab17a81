package banner

import (
	"fmt"
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗██╗     ███████╗██████╗  ██████╗ ███████╗██████╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██║     ██╔════╝██╔══██╗██╔════╝ ██╔════╝██╔══██╗
██║     ███████║███████║   ██║   ██║     █████╗  ██║  ██║██║  ███╗█████╗  ██████╔╝
██║     ██╔══██║██╔══██║   ██║   ██║     ██╔══╝  ██║  ██║██║   ██║██╔══╝  ██╔══██╗
╚██████╗██║  ██║██║  ██║   ██║   ███████╗███████╗██████╔╝╚██████╔╝███████╗██║  ██║
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚══════╝╚══════╝╚═════╝  ╚═════╝ ╚══════╝╚═╝  ╚═╝
`

// Print prints the startup banner and the effective runtime summary.
func Print(addr, dbPath, generator, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", addr)
	fmt.Printf("DB Path:   %s\n", dbPath)
	fmt.Printf("Generator: %s\n", generator)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST   /v1/chats                    - Create a chat (JSON: id?, title?)")
	fmt.Println("GET    /v1/chats                    - List chats, most recently touched first")
	fmt.Println("POST   /v1/chats/{id}/messages      - Append a user message and request a reply")
	fmt.Println("GET    /v1/chats/{id}/view          - Merged ledger+reply view")
	fmt.Println("GET    /v1/active                   - Active chat")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/chats' -d '{\"title\":\"my chat\"}'\n", addr)
	fmt.Printf("curl -X POST 'http://localhost%s/v1/chats/<id>/messages' -d '{\"text\":\"hi\"}'\n", addr)
}
