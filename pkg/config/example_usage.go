package config

// Example usage of the configuration system:
//
// 1. Load configuration with all sources:
//
//     config, err := config.Load("", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 2. Load with custom config file:
//
//     config, err := config.Load("/path/to/config.yaml", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 3. Load with command line flags:
//
//     flags := map[string]interface{}{
//         "endpoint": "https://api.example.com/v1/chat/completions",
//         "model": "qwen-vl-max",
//         "output": "./results",
//         "concurrent": 500,
//         "log-level": "debug",
//     }
//     config, err := config.Load("", flags)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 4. Programmatic configuration:
//
//     config := config.DefaultConfig()
//     config.API.Endpoint = "https://api.example.com/v1/chat/completions"
//     config.API.Token = "your-api-token"
//     config.API.Model = "qwen-vl-max"
//     config.Pool.MaxConcurrent = 500
//
//     if err := config.Validate(); err != nil {
//         log.Fatal(err)
//     }
//
// 5. Save configuration to file:
//
//     if err := config.Save(".vlmscore.yaml"); err != nil {
//         log.Fatal(err)
//     }
//
// 6. Environment variables:
//
//     export VLMSCORE_API_ENDPOINT="https://api.example.com/v1/chat/completions"
//     export VLMSCORE_API_TOKEN="your-api-token"
//     export VLMSCORE_MODEL="qwen-vl-max"
//     export VLMSCORE_MAX_CONCURRENT="500"
//     export VLMSCORE_REQUESTS_PER_MINUTE="600"
//     export VLMSCORE_OUTPUT_DIR="./results"
//     export VLMSCORE_LOG_LEVEL="debug"
//
//     The batch tooling names VLM_BATCH_API_ENDPOINT, VLM_API_TOKEN,
//     VLM_BATCH_MODEL_NAME, VLM_MAX_TOKENS, VLM_TEMPERATURE and
//     VLM_BATCH_CONCURRENT_LIMIT are honored as fallbacks.
//
// 7. Using configuration in your application:
//
//     // Create VLM client with config
//     client := vlm.NewClient(&config.API, logger)
//
//     // Set up rate limiter
//     limiter := ratelimit.NewTokenBucket(
//         config.RateLimit.RequestsPerMinute,
//         config.RateLimit.BurstSize,
//     )
//
//     // Configure the task pool
//     pool := taskpool.New[vlm.Evaluation](
//         config.Pool.MaxConcurrent,
//         taskpool.WithTimeout(config.Pool.TaskTimeout.Duration()),
//     )
