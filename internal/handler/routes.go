package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API under router.
func RegisterRoutes(router gin.IRouter, yt *YouTubeHandler, st *StreamHandler) {
	api := router.Group("/api")
	{
		api.GET("/health", st.Health)
		api.GET("/streams", st.ActiveStreams)

		youtube := api.Group("/youtube")
		youtube.GET("/info", yt.Info)
		youtube.GET("/download", yt.Download)
		youtube.GET("/download-fast", yt.DownloadFast)
		youtube.GET("/search", yt.Search)
		youtube.GET("/v2", yt.Complete)
		youtube.GET("/proxy", yt.Proxy)
		youtube.GET("/stream/:videoId", st.Stream)
	}
}
